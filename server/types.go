package server

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stratlab/strategy"
)

// BacktestRequest is the POST /api/backtest body. Defaults match
// strategy.Default(); only ticker and the date range are required.
type BacktestRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Cash       *float64 `json:"cash,omitempty"`
	BuyFeePct  *float64 `json:"buy_fee_pct,omitempty"`
	SellFeePct *float64 `json:"sell_fee_pct,omitempty"`

	StrategyMode string `json:"strategy_mode,omitempty"` // basic, advanced or periodic

	// Basic mode parameters.
	MAShort          *int `json:"ma_short,omitempty"`
	MALong           *int `json:"ma_long,omitempty"`
	RSIPeriodEntry   *int `json:"rsi_period_entry,omitempty"`
	RSIBuyThreshold  *int `json:"rsi_buy_threshold,omitempty"`
	RSIPeriodExit    *int `json:"rsi_period_exit,omitempty"`
	RSISellThreshold *int `json:"rsi_sell_threshold,omitempty"`

	// Advanced mode rule lists.
	EntryRules []strategy.Rule `json:"entry_rules,omitempty"`
	ExitRules  []strategy.Rule `json:"exit_rules,omitempty"`

	// Risk controls, zero disables each.
	StopLossPct     float64 `json:"stop_loss_pct,omitempty"`
	TakeProfitPct   float64 `json:"take_profit_pct,omitempty"`
	TrailingStopPct float64 `json:"trailing_stop_pct,omitempty"`

	// Periodic mode parameters.
	PeriodicAmount   float64 `json:"periodic_amount,omitempty"`
	PeriodicFixedFee float64 `json:"periodic_fixed_fee,omitempty"`
	PeriodicDays     []int   `json:"periodic_days,omitempty"`
}

// DateRange parses the request dates. End is exclusive of nothing; both are
// calendar days.
func (r *BacktestRequest) DateRange() (start, end time.Time, err error) {
	const layout = "2006-01-02"
	if r.Ticker == "" {
		return start, end, fmt.Errorf("ticker is required")
	}
	start, err = time.Parse(layout, r.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("bad start_date %q", r.StartDate)
	}
	end, err = time.Parse(layout, r.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("bad end_date %q", r.EndDate)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("end_date must be after start_date")
	}
	return start, end, nil
}

// ToConfig materializes a strategy configuration from the request, starting
// from defaults so omitted fields keep their usual values.
func (r *BacktestRequest) ToConfig() (*strategy.Config, error) {
	cfg := strategy.Default()

	switch r.StrategyMode {
	case "", "basic":
		cfg.Mode = strategy.ModeBasic
	case "advanced":
		cfg.Mode = strategy.ModeAdvanced
	case "periodic":
		cfg.Mode = strategy.ModePeriodic
	default:
		return nil, fmt.Errorf("unknown strategy_mode %q", r.StrategyMode)
	}

	if r.Cash != nil {
		cfg.InitialCash = *r.Cash
	}
	if r.BuyFeePct != nil {
		cfg.BuyFeePct = *r.BuyFeePct
	}
	if r.SellFeePct != nil {
		cfg.SellFeePct = *r.SellFeePct
	}

	if r.MAShort != nil {
		cfg.Basic.MAShort = *r.MAShort
	}
	if r.MALong != nil {
		cfg.Basic.MALong = *r.MALong
	}
	if r.RSIPeriodEntry != nil {
		cfg.Basic.RSIPeriodEntry = *r.RSIPeriodEntry
	}
	if r.RSIBuyThreshold != nil {
		cfg.Basic.RSIBuyThreshold = float64(*r.RSIBuyThreshold)
	}
	if r.RSIPeriodExit != nil {
		cfg.Basic.RSIPeriodExit = *r.RSIPeriodExit
	}
	if r.RSISellThreshold != nil {
		cfg.Basic.RSISellThreshold = float64(*r.RSISellThreshold)
	}

	cfg.EntryRules = r.EntryRules
	cfg.ExitRules = r.ExitRules
	cfg.StopLossPct = r.StopLossPct
	cfg.TakeProfitPct = r.TakeProfitPct
	cfg.TrailingStopPct = r.TrailingStopPct

	if cfg.Mode == strategy.ModePeriodic {
		cfg.Periodic = strategy.PeriodicParams{
			Amount:      r.PeriodicAmount,
			FixedFee:    r.PeriodicFixedFee,
			DaysOfMonth: r.PeriodicDays,
		}
		if r.Cash == nil {
			cfg.InitialCash = 0
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
