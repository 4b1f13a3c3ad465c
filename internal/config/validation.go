package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Chain.validate(c.Engine.Mode); err != nil {
		return err
	}
	if err := c.Sandbox.validate(c.Engine.Mode); err != nil {
		return err
	}
	return nil
}

func (e *EngineConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(e.Mode))
	if mode != ModeLive && mode != ModeSandbox {
		return fmt.Errorf("engine.mode must be \"live\" or \"sandbox\", got %q", e.Mode)
	}
	e.Mode = mode
	if e.IntervalSeconds <= 0 {
		return fmt.Errorf("engine.interval_seconds must be > 0")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxRiskPerTrade <= 0 || r.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk.max_risk_per_trade must be in (0,1]")
	}
	if r.PositionSize.MinPct <= 0 || r.PositionSize.MaxPct <= 0 {
		return fmt.Errorf("risk.position_size bounds must be positive")
	}
	if r.PositionSize.MinPct > r.PositionSize.MaxPct {
		return fmt.Errorf("risk.position_size.min_pct must not exceed max_pct")
	}
	if r.SLRange.Default <= 0 || r.SLRange.Default > 1 {
		return fmt.Errorf("risk.sl_range.default must be in (0,1]")
	}
	if r.TPRange.Default <= 0 {
		return fmt.Errorf("risk.tp_range.default must be positive")
	}
	if r.AMMFeeBps < 0 || r.AMMFeeBps >= 10000 {
		return fmt.Errorf("risk.amm_fee_bps must be in [0,10000)")
	}
	if r.MaxFriction <= 0 {
		return fmt.Errorf("risk.max_friction must be positive")
	}
	return nil
}

func (ch *ChainConfig) validate(mode string) error {
	if mode != "live" {
		return nil
	}
	if strings.TrimSpace(ch.RelayURL) == "" {
		return fmt.Errorf("chain.relay_url is required in live mode")
	}
	if strings.TrimSpace(ch.TraderContract) == "" {
		return fmt.Errorf("chain.trader_contract is required in live mode")
	}
	return nil
}

func (s *SandboxConfig) validate(mode string) error {
	if mode != "sandbox" {
		return nil
	}
	if s.InitialBalance <= 0 {
		return fmt.Errorf("sandbox.initial_balance must be positive")
	}
	return nil
}
