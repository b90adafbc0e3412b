package strategy

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects how entry/exit decisions are made.
type Mode string

const (
	// ModeBasic uses the fixed SMA-crossover-plus-RSI rule pair.
	ModeBasic Mode = "basic"
	// ModeAdvanced uses the configured entry/exit rule lists.
	ModeAdvanced Mode = "advanced"
	// ModePeriodic disables rules entirely and invests a fixed contribution
	// on configured days of each month.
	ModePeriodic Mode = "periodic"
)

// BasicParams are the fixed parameters of basic mode: golden/death cross on
// two SMAs gated by RSI thresholds.
type BasicParams struct {
	MAShort          int     `json:"ma_short" yaml:"ma_short"`
	MALong           int     `json:"ma_long" yaml:"ma_long"`
	RSIPeriodEntry   int     `json:"rsi_period_entry" yaml:"rsi_period_entry"`
	RSIBuyThreshold  float64 `json:"rsi_buy_threshold" yaml:"rsi_buy_threshold"`
	RSIPeriodExit    int     `json:"rsi_period_exit" yaml:"rsi_period_exit"`
	RSISellThreshold float64 `json:"rsi_sell_threshold" yaml:"rsi_sell_threshold"`
}

// PeriodicParams configure dollar-cost-averaging mode.
type PeriodicParams struct {
	Amount      float64 `json:"amount" yaml:"amount"`
	FixedFee    float64 `json:"fixed_fee" yaml:"fixed_fee"`
	DaysOfMonth []int   `json:"days_of_month" yaml:"days_of_month"`
}

// Config is the full strategy configuration for one backtest run. A Config is
// constructed fresh for every run and never mutated afterwards; runs share no
// state through it.
type Config struct {
	Mode Mode `json:"mode" yaml:"mode"`

	Basic      BasicParams `json:"basic,omitempty" yaml:"basic,omitempty"`
	EntryRules []Rule      `json:"entry_rules,omitempty" yaml:"entry_rules,omitempty"`
	ExitRules  []Rule      `json:"exit_rules,omitempty" yaml:"exit_rules,omitempty"`

	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct" yaml:"trailing_stop_pct"`

	Periodic PeriodicParams `json:"periodic,omitempty" yaml:"periodic,omitempty"`

	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
	BuyFeePct   float64 `json:"buy_fee_pct" yaml:"buy_fee_pct"`
	SellFeePct  float64 `json:"sell_fee_pct" yaml:"sell_fee_pct"`
}

// Default returns a configuration with sensible defaults: basic mode,
// SMA 10/60 with RSI 14 gates, Taiwan-style fee legs.
func Default() *Config {
	return &Config{
		Mode: ModeBasic,
		Basic: BasicParams{
			MAShort:          10,
			MALong:           60,
			RSIPeriodEntry:   14,
			RSIBuyThreshold:  30,
			RSIPeriodExit:    14,
			RSISellThreshold: 70,
		},
		InitialCash: 100_000,
		BuyFeePct:   0.1425,
		SellFeePct:  0.4425,
	}
}

// LoadFromFile loads a strategy configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse strategy file (tried YAML and JSON): %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration is complete for its mode.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBasic:
		b := c.Basic
		if b.MAShort <= 0 || b.MALong <= 0 {
			return fmt.Errorf("basic mode: ma_short and ma_long must be positive")
		}
		if b.MAShort >= b.MALong {
			return fmt.Errorf("basic mode: ma_short %d must be below ma_long %d", b.MAShort, b.MALong)
		}
		if b.RSIPeriodEntry <= 0 || b.RSIPeriodExit <= 0 {
			return fmt.Errorf("basic mode: RSI periods must be positive")
		}
	case ModeAdvanced:
		if len(c.EntryRules) == 0 {
			return fmt.Errorf("advanced mode: at least one entry rule is required")
		}
		for i, r := range c.EntryRules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("entry rule %d: %w", i, err)
			}
		}
		for i, r := range c.ExitRules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("exit rule %d: %w", i, err)
			}
		}
	case ModePeriodic:
		p := c.Periodic
		if p.Amount <= 0 {
			return fmt.Errorf("periodic mode: amount must be positive")
		}
		if p.FixedFee < 0 {
			return fmt.Errorf("periodic mode: fixed_fee cannot be negative")
		}
		if len(p.DaysOfMonth) == 0 {
			return fmt.Errorf("periodic mode: at least one contribution day is required")
		}
		for _, d := range p.DaysOfMonth {
			if d < 1 || d > 31 {
				return fmt.Errorf("periodic mode: day of month %d out of range", d)
			}
		}
	default:
		return fmt.Errorf("unknown strategy mode %q", c.Mode)
	}

	if c.Mode != ModePeriodic && c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive, got %v", c.InitialCash)
	}
	if c.InitialCash < 0 {
		return fmt.Errorf("initial_cash cannot be negative, got %v", c.InitialCash)
	}
	if c.StopLossPct < 0 || c.TakeProfitPct < 0 || c.TrailingStopPct < 0 {
		return fmt.Errorf("stop/take/trailing percentages cannot be negative")
	}
	if c.BuyFeePct < 0 || c.SellFeePct < 0 {
		return fmt.Errorf("fee percentages cannot be negative")
	}
	return nil
}

// CommissionRate returns the single round-trip commission rate as a decimal:
// the buy and sell fee legs averaged into one rate. Periodic mode ignores
// this and uses the fixed per-contribution fee.
func (c *Config) CommissionRate() float64 {
	return (c.BuyFeePct + c.SellFeePct) / 2 / 100
}

// entrySet and exitSet resolve the effective rule lists, expanding basic mode
// into its fixed rule pair.
func (c *Config) entrySet() []Rule {
	if c.Mode == ModeBasic {
		return []Rule{
			{Kind: SMACross, Params: map[string]float64{
				"fast": float64(c.Basic.MAShort), "slow": float64(c.Basic.MALong)}},
			{Kind: RSIThreshold, Params: map[string]float64{
				"period": float64(c.Basic.RSIPeriodEntry), "threshold": c.Basic.RSIBuyThreshold}},
		}
	}
	return c.EntryRules
}

func (c *Config) exitSet() []Rule {
	if c.Mode == ModeBasic {
		return []Rule{
			{Kind: SMACross, Params: map[string]float64{
				"fast": float64(c.Basic.MAShort), "slow": float64(c.Basic.MALong)}},
			{Kind: RSIThreshold, Params: map[string]float64{
				"period": float64(c.Basic.RSIPeriodExit), "threshold": c.Basic.RSISellThreshold}},
		}
	}
	return c.ExitRules
}

// MaxLookback returns the longest lookback any configured rule requires.
// Periodic mode has no rules and returns 0.
func (c *Config) MaxLookback() int {
	max := 0
	for _, r := range c.entrySet() {
		if lb := r.Lookback(); lb > max {
			max = lb
		}
	}
	for _, r := range c.exitSet() {
		if lb := r.Lookback(); lb > max {
			max = lb
		}
	}
	return max
}
