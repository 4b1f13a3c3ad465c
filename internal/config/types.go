package config

import "strings"

// Config is the top-level configuration carrier for riptide.
type Config struct {
	App     AppConfig     `toml:"app"`
	Engine  EngineConfig  `toml:"engine"`
	Market  MarketConfig  `toml:"market"`
	Chain   ChainConfig   `toml:"chain"`
	Risk    RiskConfig    `toml:"risk"`
	Sandbox SandboxConfig `toml:"sandbox"`
	Store   StoreConfig   `toml:"store"`
	Report  ReportConfig  `toml:"report"`
	Models  ModelsConfig  `toml:"models"`
	Pairs   PairsConfig   `toml:"pairs"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// Engine modes.
const (
	ModeLive    = "live"
	ModeSandbox = "sandbox"
)

// EngineConfig controls the main tick loop.
type EngineConfig struct {
	Mode            string `toml:"mode"` // "live" | "sandbox"
	IntervalSeconds int    `toml:"interval_seconds"`
	RunImmediately  bool   `toml:"run_immediately"`
}

type MarketConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	Interval       string `toml:"interval"`
	CandleLimit    int    `toml:"candle_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ChainConfig describes the signing relay used by the live backend.
// Key custody and transaction construction live behind the relay.
type ChainConfig struct {
	RelayURL               string `toml:"relay_url"`
	APIKey                 string `toml:"api_key"`
	TraderContract         string `toml:"trader_contract"`
	VaultContract          string `toml:"vault_contract"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	DeadlineSeconds        int    `toml:"deadline_seconds"`
	BreakerThreshold       int    `toml:"breaker_threshold"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
}

// RiskConfig is the read-only risk surface consumed by the decision layer.
type RiskConfig struct {
	MaxRiskPerTrade float64            `toml:"max_risk_per_trade"`
	PositionSize    PositionSizeConfig `toml:"position_size"`
	SLRange         RangeConfig        `toml:"sl_range"`
	TPRange         RangeConfig        `toml:"tp_range"`
	EV              EVConfig           `toml:"ev"`
	Cooldowns       CooldownConfig     `toml:"cooldowns"`
	Pairs           PairFilterConfig   `toml:"pairs"`
	MaxVolatility   float64            `toml:"max_volatility"`
	MaxFriction     float64            `toml:"max_friction"`
	AMMFeeBps       int                `toml:"amm_fee_bps"`
}

type PositionSizeConfig struct {
	MinPct float64 `toml:"min_pct"`
	MaxPct float64 `toml:"max_pct"`
}

type RangeConfig struct {
	Default float64 `toml:"default"`
}

type EVConfig struct {
	MinEV float64 `toml:"min_ev"`
}

type CooldownConfig struct {
	PerPairSeconds int `toml:"per_pair"`
	GlobalSeconds  int `toml:"global"`
}

type PairFilterConfig struct {
	MinLiquidityUSD float64 `toml:"min_liquidity_usd"`
}

type SandboxConfig struct {
	InitialBalance float64 `toml:"initial_balance"`
	ApplySlippage  bool    `toml:"apply_slippage"`
	PoolDepthUSD   float64 `toml:"pool_depth_usd"`
}

type StoreConfig struct {
	TradeDBPath    string `toml:"trade_db_path"`
	DecisionDBPath string `toml:"decision_db_path"`
}

type ReportConfig struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
	Snapshot  bool   `toml:"snapshot"` // render the equity chart to PNG via headless chrome
}

type ModelsConfig struct {
	ManifestPath string `toml:"manifest_path"`
}

type PairsConfig struct {
	Path string `toml:"path"`
}

// keySet tracks the config paths explicitly present in the loaded files so
// defaults never clobber an intentional zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
