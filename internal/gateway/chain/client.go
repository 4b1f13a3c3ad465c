// Package chain talks to the transaction relay that signs and submits swaps
// on behalf of the engine, and exposes AMM pool state for pricing.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"riptide/internal/logger"

	"github.com/tidwall/gjson"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultDeadline = 120 * time.Second
)

// ClientConfig binds the relay endpoint to the on-chain contracts it trades
// through. TraderContract routes the swaps, VaultContract scopes the treasury
// balance, DeadlineSeconds bounds how long a submitted swap stays valid.
type ClientConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	TraderContract  string
	VaultContract   string
	DeadlineSeconds int
}

// Client is a thin HTTP client for the relay API. All methods are safe for
// concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	traderContract string
	vaultContract  string
	deadline       time.Duration
	http           *http.Client

	nowFn func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	deadline := time.Duration(cfg.DeadlineSeconds) * time.Second
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		traderContract: strings.TrimSpace(cfg.TraderContract),
		vaultContract:  strings.TrimSpace(cfg.VaultContract),
		deadline:       deadline,
		http:           &http.Client{Timeout: cfg.Timeout},
		nowFn:          time.Now,
	}
}

// PoolState returns the base and quote reserves of a pool.
func (c *Client) PoolState(ctx context.Context, poolAddr string) (base, quote float64, err error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/pools/"+poolAddr, nil)
	if err != nil {
		return 0, 0, err
	}
	root := gjson.ParseBytes(body)
	base = root.Get("reserve_base").Float()
	quote = root.Get("reserve_quote").Float()
	if base < 0 || quote < 0 {
		return 0, 0, fmt.Errorf("pool %s: negative reserves in relay response", poolAddr)
	}
	return base, quote, nil
}

// TreasuryBalance returns the quote balance available for trading, scoped to
// the configured vault when one is set.
func (c *Client) TreasuryBalance(ctx context.Context) (float64, error) {
	path := "/v1/treasury"
	if c.vaultContract != "" {
		path += "/" + c.vaultContract
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	return gjson.GetBytes(body, "balance").Float(), nil
}

// OpenRequest submits a quote-for-base swap opening a long position. Contract
// and Deadline are stamped by the client.
type OpenRequest struct {
	Pool     string  `json:"pool"`
	AmountIn float64 `json:"amount_in"`
	MinOut   float64 `json:"min_out"`
	Contract string  `json:"contract,omitempty"`
	Deadline int64   `json:"deadline,omitempty"`
}

// CloseRequest unwinds a previously opened position.
type CloseRequest struct {
	Pool     string  `json:"pool"`
	AmountIn float64 `json:"amount_in"`
	MinOut   float64 `json:"min_out"`
	Ref      string  `json:"ref,omitempty"`
	Contract string  `json:"contract,omitempty"`
	Deadline int64   `json:"deadline,omitempty"`
}

// OpenPosition submits the open swap and returns the transaction hash.
func (c *Client) OpenPosition(ctx context.Context, req OpenRequest) (string, error) {
	req.Contract = c.traderContract
	req.Deadline = c.swapDeadline()
	body, err := c.do(ctx, http.MethodPost, "/v1/trades/open", req)
	if err != nil {
		return "", err
	}
	return txHash(body)
}

// ClosePosition submits the close swap and returns the transaction hash.
func (c *Client) ClosePosition(ctx context.Context, req CloseRequest) (string, error) {
	req.Contract = c.traderContract
	req.Deadline = c.swapDeadline()
	body, err := c.do(ctx, http.MethodPost, "/v1/trades/close", req)
	if err != nil {
		return "", err
	}
	return txHash(body)
}

func (c *Client) swapDeadline() int64 {
	return c.nowFn().Add(c.deadline).Unix()
}

func txHash(body []byte) (string, error) {
	root := gjson.ParseBytes(body)
	if !root.Get("success").Bool() {
		return "", fmt.Errorf("relay rejected trade: %s", root.Get("error").String())
	}
	hash := root.Get("tx_hash").String()
	if hash == "" {
		return "", fmt.Errorf("relay response missing tx_hash")
	}
	return hash, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal relay request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("relay %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnf("relay %s %s returned %d: %s", method, path, resp.StatusCode, truncate(body, 256))
		return nil, fmt.Errorf("relay %s %s: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
