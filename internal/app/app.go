// Package app orchestrates startup: config in, fully wired engine out.
package app

import (
	"context"
	"fmt"
	"time"

	"riptide/internal/config"
	"riptide/internal/engine"
	"riptide/internal/logger"
	"riptide/internal/report"
	"riptide/internal/scheduler"
	"riptide/internal/store/decisionlog"
	"riptide/internal/store/tradelog"
	httpapi "riptide/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App holds the wired engine and its services.
type App struct {
	cfg       *config.Config
	loop      *engine.Loop
	http      *httpapi.Server
	trades    *tradelog.Store
	decisions *decisionlog.Store
	reporter  *report.Generator
}

// NewApp builds the application object graph without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the HTTP server and the tick scheduler and blocks until the
// context is cancelled. The trade report, if enabled, renders on shutdown.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.http.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.http.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx,
			time.Duration(a.cfg.Engine.IntervalSeconds)*time.Second, 0)
		sched.RunImmediately = a.cfg.Engine.RunImmediately
		sched.Start(func() { a.loop.Tick(ctx) })
		return nil
	})

	err := group.Wait()

	if a.reporter != nil {
		reportCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, rerr := a.reporter.Generate(reportCtx); rerr != nil {
			logger.Errorf("shutdown report failed: %v", rerr)
		}
	}
	return err
}

// Loop exposes the engine loop for replay harnesses and tests.
func (a *App) Loop() *engine.Loop {
	if a == nil {
		return nil
	}
	return a.loop
}

func (a *App) close() {
	if a.decisions != nil {
		if err := a.decisions.Close(); err != nil {
			logger.Warnf("close decision log: %v", err)
		}
	}
	if a.trades != nil {
		if err := a.trades.Close(); err != nil {
			logger.Warnf("close trade ledger: %v", err)
		}
	}
}
