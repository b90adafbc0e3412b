// Package strategy defines the configurable signal rules and per-run rule
// evaluation for the backtest engine.
package strategy

import (
	"fmt"
	"sort"
	"strings"
)

// RuleKind identifies which indicator a signal rule is built on.
type RuleKind string

const (
	SMACross           RuleKind = "SMA_CROSS"
	RSIThreshold       RuleKind = "RSI_THRESHOLD"
	MACDCross          RuleKind = "MACD_CROSS"
	StochasticCross    RuleKind = "STOCHASTIC_CROSS"
	BollingerBreak     RuleKind = "BOLLINGER_BREAK"
	WilliamsRThreshold RuleKind = "WILLIAMS_R_THRESHOLD"
	DonchianBreakout   RuleKind = "DONCHIAN_BREAKOUT"
)

// ruleParams maps each kind to its required parameter names.
var ruleParams = map[RuleKind][]string{
	SMACross:           {"fast", "slow"},
	RSIThreshold:       {"period", "threshold"},
	MACDCross:          {"fast", "slow", "signal"},
	StochasticCross:    {"period"},
	BollingerBreak:     {"period", "std"},
	WilliamsRThreshold: {"period", "threshold"},
	DonchianBreakout:   {"period"},
}

// Rule is one configured entry or exit condition. It is immutable once
// constructed; the same rule appearing in both entry and exit sets shares the
// computed indicator series through Key().
type Rule struct {
	Kind   RuleKind           `json:"kind" yaml:"kind"`
	Params map[string]float64 `json:"params" yaml:"params"`
}

// Validate checks that the rule kind is known and every required parameter is
// present and positive where it must be.
func (r Rule) Validate() error {
	names, ok := ruleParams[r.Kind]
	if !ok {
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	for _, name := range names {
		v, ok := r.Params[name]
		if !ok {
			return fmt.Errorf("rule %s: missing parameter %q", r.Kind, name)
		}
		// Thresholds may legitimately be negative (Williams %R) or zero.
		if name != "threshold" && v <= 0 {
			return fmt.Errorf("rule %s: parameter %q must be positive, got %v", r.Kind, name, v)
		}
	}
	if r.Kind == SMACross || r.Kind == MACDCross {
		if r.Params["fast"] >= r.Params["slow"] {
			return fmt.Errorf("rule %s: fast period %v must be below slow period %v",
				r.Kind, r.Params["fast"], r.Params["slow"])
		}
	}
	return nil
}

// Key returns the canonical cache key for the rule: the kind plus the sorted
// parameter name/value pairs. Two rules with the same kind and parameters
// produce the same key and share one computed series.
func (r Rule) Key() string {
	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(string(r.Kind))
	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%g", name, r.Params[name])
	}
	return b.String()
}

// Lookback returns how many bars of history the rule needs before it can
// produce a defined signal.
func (r Rule) Lookback() int {
	p := func(name string) int { return int(r.Params[name]) }
	switch r.Kind {
	case SMACross:
		return p("slow") + 1 // crossover needs the prior bar defined too
	case RSIThreshold:
		return p("period") + 1
	case MACDCross:
		return p("slow") + p("signal")
	case StochasticCross:
		return p("period") + 1
	case BollingerBreak:
		return p("period")
	case WilliamsRThreshold:
		return p("period")
	case DonchianBreakout:
		return p("period") + 1
	default:
		return 0
	}
}
