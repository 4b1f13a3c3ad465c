// Package httpapi exposes the engine's read-only state over HTTP: open
// positions, portfolio counters, trade history, decision history and
// Prometheus metrics. It never mutates engine state.
package httpapi

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"riptide/internal/engine"
	"riptide/internal/logger"
	"riptide/internal/store/decisionlog"
	"riptide/internal/store/tradelog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the observation API.
type Server struct {
	addr   string
	router *gin.Engine
	http   *http.Server
}

// PortfolioView is what /api/portfolio reports.
type PortfolioView struct {
	Mode          string  `json:"mode"`
	Capital       float64 `json:"capital"`
	OpenPositions int     `json:"open_positions"`
	TradesToday   int     `json:"trades_today"`
	DailyPnL      float64 `json:"daily_pnl"`
	LastTradeAt   string  `json:"last_trade_at,omitempty"`
}

// ServerConfig carries the server's read-side dependencies. Trades and
// Decisions may be nil; their routes then report 404.
type ServerConfig struct {
	Addr      string
	Mode      string
	Store     *engine.StateStore
	Capital   engine.CapitalSource
	Trades    *tradelog.Store
	Decisions *decisionlog.Store
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":9984"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/positions", positionsHandler(cfg.Store))
	api.GET("/portfolio", portfolioHandler(cfg))
	if cfg.Trades != nil {
		api.GET("/trades", tradesHandler(cfg.Trades))
	}
	if cfg.Decisions != nil {
		api.GET("/decisions", decisionsHandler(cfg.Decisions))
	}

	return &Server{addr: cfg.Addr, router: router}
}

// Start runs the listener until Shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{Addr: s.addr, Handler: s.router}
	logger.Infof("http: listening on %s", s.addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler { return s.router }

func positionsHandler(store *engine.StateStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		positions := store.Positions()
		sort.Slice(positions, func(i, j int) bool {
			return positions[i].OpenedAt.Before(positions[j].OpenedAt)
		})
		c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
	}
}

func portfolioHandler(cfg ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := PortfolioView{Mode: cfg.Mode, OpenPositions: cfg.Store.OpenCount()}
		if capital, err := cfg.Capital.AvailableCapital(c.Request.Context()); err == nil {
			view.Capital = capital
		}
		tradesToday, dailyPnL, lastTradeAt := cfg.Store.Counters()
		view.TradesToday = tradesToday
		view.DailyPnL = dailyPnL
		if !lastTradeAt.IsZero() {
			view.LastTradeAt = lastTradeAt.UTC().Format(time.RFC3339)
		}
		c.JSON(http.StatusOK, view)
	}
}

func tradesHandler(trades *tradelog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		rows, err := trades.ClosedTrades(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trades": rows, "count": len(rows)})
	}
}

func decisionsHandler(decisions *decisionlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		rows, err := decisions.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": rows, "count": len(rows)})
	}
}
