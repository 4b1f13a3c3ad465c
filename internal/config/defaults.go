package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9984"
	defaultAppLogPath  = ""

	defaultEngineMode     = "sandbox"
	defaultEngineInterval = 60

	defaultMarketREST     = "https://fapi.binance.com"
	defaultMarketInterval = "1h"
	defaultMarketCandles  = 200
	defaultMarketTimeout  = 15

	defaultChainTimeout         = 20
	defaultChainDeadline        = 120
	defaultChainBreakerFailures = 3
	defaultChainBreakerCooldown = 300

	defaultRiskMaxPerTrade  = 0.005
	defaultRiskMinPct       = 0.02
	defaultRiskMaxPct       = 0.05
	defaultRiskSL           = 0.01
	defaultRiskTP           = 0.04
	defaultRiskMinEV        = 0.001
	defaultRiskPairCooldown = 3600
	defaultRiskGlobalCool   = 300
	defaultRiskMinLiquidity = 100000
	defaultRiskMaxVol       = 0.10
	defaultRiskMaxFriction  = 0.10
	defaultRiskFeeBps       = 30

	defaultSandboxBalance = 100000
	defaultSandboxDepth   = 2000000

	defaultTradeDBPath    = "data/trades.db"
	defaultDecisionDBPath = "data/decisions.db"
	defaultReportDir      = "data/reports"
	defaultModelsManifest = "configs/models.yaml"
	defaultPairsPath      = "configs/pairs.yaml"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Engine.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Chain.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Sandbox.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Report.applyDefaults(keys)
	c.Models.applyDefaults(keys)
	c.Pairs.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (e *EngineConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("engine.mode", &e.Mode, defaultEngineMode),
		intFieldDefault("engine.interval_seconds", &e.IntervalSeconds, defaultEngineInterval),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_base_url", &m.RESTBaseURL, defaultMarketREST),
		stringFieldDefault("market.interval", &m.Interval, defaultMarketInterval),
		intFieldDefault("market.candle_limit", &m.CandleLimit, defaultMarketCandles),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
	)
}

func (ch *ChainConfig) applyDefaults(keys keySet) {
	if ch == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("chain.timeout_seconds", &ch.TimeoutSeconds, defaultChainTimeout),
		intFieldDefault("chain.deadline_seconds", &ch.DeadlineSeconds, defaultChainDeadline),
		intFieldDefault("chain.breaker_threshold", &ch.BreakerThreshold, defaultChainBreakerFailures),
		intFieldDefault("chain.breaker_cooldown_seconds", &ch.BreakerCooldownSeconds, defaultChainBreakerCooldown),
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("risk.max_risk_per_trade", &r.MaxRiskPerTrade, defaultRiskMaxPerTrade),
		floatFieldDefault("risk.position_size.min_pct", &r.PositionSize.MinPct, defaultRiskMinPct),
		floatFieldDefault("risk.position_size.max_pct", &r.PositionSize.MaxPct, defaultRiskMaxPct),
		floatFieldDefault("risk.sl_range.default", &r.SLRange.Default, defaultRiskSL),
		floatFieldDefault("risk.tp_range.default", &r.TPRange.Default, defaultRiskTP),
		floatFieldDefault("risk.ev.min_ev", &r.EV.MinEV, defaultRiskMinEV),
		intFieldDefault("risk.cooldowns.per_pair", &r.Cooldowns.PerPairSeconds, defaultRiskPairCooldown),
		intFieldDefault("risk.cooldowns.global", &r.Cooldowns.GlobalSeconds, defaultRiskGlobalCool),
		floatFieldDefault("risk.pairs.min_liquidity_usd", &r.Pairs.MinLiquidityUSD, defaultRiskMinLiquidity),
		floatFieldDefault("risk.max_volatility", &r.MaxVolatility, defaultRiskMaxVol),
		floatFieldDefault("risk.max_friction", &r.MaxFriction, defaultRiskMaxFriction),
		intFieldDefault("risk.amm_fee_bps", &r.AMMFeeBps, defaultRiskFeeBps),
	)
}

func (s *SandboxConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("sandbox.initial_balance", &s.InitialBalance, defaultSandboxBalance),
		floatFieldDefault("sandbox.pool_depth_usd", &s.PoolDepthUSD, defaultSandboxDepth),
		fieldDefault{
			key:   "sandbox.apply_slippage",
			need:  func() bool { return !s.ApplySlippage },
			apply: func() { s.ApplySlippage = true },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.trade_db_path", &s.TradeDBPath, defaultTradeDBPath),
		stringFieldDefault("store.decision_db_path", &s.DecisionDBPath, defaultDecisionDBPath),
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("report.output_dir", &r.OutputDir, defaultReportDir),
	)
}

func (m *ModelsConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("models.manifest_path", &m.ManifestPath, defaultModelsManifest),
	)
}

func (p *PairsConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("pairs.path", &p.Path, defaultPairsPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
