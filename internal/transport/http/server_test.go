package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riptide/internal/engine"
	"riptide/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCapital struct{ amount float64 }

func (c fixedCapital) AvailableCapital(ctx context.Context) (float64, error) {
	return c.amount, nil
}

func testServer(t *testing.T) (*Server, *engine.StateStore) {
	t.Helper()
	store := engine.NewStateStore()
	srv := NewServer(ServerConfig{
		Addr:    ":0",
		Mode:    "sandbox",
		Store:   store,
		Capital: fixedCapital{amount: 100000},
	})
	return srv, store
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Positions(t *testing.T) {
	srv, store := testServer(t)
	require.NoError(t, store.AddPosition(types.Position{
		ID:         "p1",
		Pair:       "WETH/USDC",
		EntryPrice: 2.0,
		Size:       5000,
		OpenedAt:   time.Now(),
	}))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Positions []types.Position `json:"positions"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "WETH/USDC", body.Positions[0].Pair)
}

func TestServer_Portfolio(t *testing.T) {
	srv, store := testServer(t)
	store.MarkTrade("WETH/USDC")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view PortfolioView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "sandbox", view.Mode)
	assert.Equal(t, 100000.0, view.Capital)
	assert.Equal(t, 1, view.TradesToday)
	assert.NotEmpty(t, view.LastTradeAt)
}

func TestServer_TradesRouteAbsentWithoutLedger(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
