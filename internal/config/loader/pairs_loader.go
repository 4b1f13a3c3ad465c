// Package loader provides hot-reloadable file-backed configuration, keeping
// the main Config immutable while the tradable pair universe can change at
// runtime.
package loader

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"riptide/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PairDefinition describes one tradable pair and its AMM pool binding.
type PairDefinition struct {
	Symbol     string `mapstructure:"symbol"`
	BaseToken  string `mapstructure:"base_token"`
	QuoteToken string `mapstructure:"quote_token"`
	PoolAddr   string `mapstructure:"pool_address"`
	Enabled    bool   `mapstructure:"enabled"`
}

// PairSnapshot is an immutable view of the pair universe at a point in time.
type PairSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Pairs    []PairDefinition
}

// Enabled returns the enabled pairs in stable symbol order.
func (s PairSnapshot) Enabled() []PairDefinition {
	out := make([]PairDefinition, 0, len(s.Pairs))
	for _, p := range s.Pairs {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// ChangeListener fires after a successful reload.
type ChangeListener func(PairSnapshot)

// PairLoader watches pairs.yaml and serves read snapshots to the engine.
type PairLoader struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  PairSnapshot
	listeners []ChangeListener
}

// NewPairLoader reads the file once and starts watching it.
func NewPairLoader(path string) (*PairLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("pair loader requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pairs config failed: %w", err)
	}
	l := &PairLoader{path: path, v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := l.reload(); err != nil {
			logger.Errorf("pairs reload failed (%s): %v", evt.Name, err)
			return
		}
		l.notify()
	})
	v.WatchConfig()
	return l, nil
}

// Static builds a loader with a fixed pair set, for tests and the sandbox.
func Static(pairs ...PairDefinition) *PairLoader {
	return &PairLoader{snapshot: PairSnapshot{Version: 1, LoadedAt: time.Now(), Pairs: pairs}}
}

// Snapshot returns the current pair universe (copy).
func (l *PairLoader) Snapshot() PairSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSnapshot(l.snapshot)
}

// Subscribe registers a listener for reloads.
func (l *PairLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *PairLoader) reload() error {
	if err := l.v.ReadInConfig(); err != nil {
		return err
	}
	var file struct {
		Pairs []PairDefinition `mapstructure:"pairs"`
	}
	if err := l.v.Unmarshal(&file); err != nil {
		return fmt.Errorf("parse pairs config failed: %w", err)
	}
	pairs := make([]PairDefinition, 0, len(file.Pairs))
	for _, p := range file.Pairs {
		p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
		if p.Symbol == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Symbol < pairs[j].Symbol })

	l.mu.Lock()
	l.snapshot = PairSnapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Pairs:    pairs,
	}
	l.mu.Unlock()
	logger.Infof("pair loader: %d pairs loaded from %s", len(pairs), l.path)
	return nil
}

func (l *PairLoader) notify() {
	l.mu.RLock()
	snap := cloneSnapshot(l.snapshot)
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		go fn(snap)
	}
}

func cloneSnapshot(src PairSnapshot) PairSnapshot {
	dst := src
	dst.Pairs = append([]PairDefinition(nil), src.Pairs...)
	return dst
}
