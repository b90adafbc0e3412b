package strategy

import (
	"fmt"

	"github.com/rustyeddy/stratlab/indicators"
	"github.com/rustyeddy/stratlab/market"
)

// Side distinguishes the buy interpretation of a rule from its sell
// interpretation. The same rule kind fires on opposite conditions depending
// on which list it appears in: an SMA cross buys on the golden cross and
// sells on the death cross, an RSI threshold buys below and sells above, and
// so on.
type Side int8

const (
	Entry Side = +1
	Exit  Side = -1
)

// compiledRule binds a rule to its computed indicator series for one run.
type compiledRule struct {
	rule   Rule
	side   Side
	series [][]float64 // indicator lines, all aligned with the bar history
	closes []float64
}

// Evaluator evaluates the configured rule sets bar by bar. It owns a per-run
// indicator cache; rules with identical kind and parameters share one
// computed series. An Evaluator must not be shared between runs.
type Evaluator struct {
	bars  market.History
	cache *indicators.Cache
	entry []compiledRule
	exit  []compiledRule
}

// NewEvaluator computes every indicator series the configuration references
// and returns an evaluator ready for bar-by-bar queries.
func NewEvaluator(bars market.History, cfg *Config) (*Evaluator, error) {
	e := &Evaluator{
		bars:  bars,
		cache: indicators.NewCache(),
	}

	for _, r := range cfg.entrySet() {
		cr, err := e.compile(r, Entry)
		if err != nil {
			return nil, err
		}
		e.entry = append(e.entry, cr)
	}
	for _, r := range cfg.exitSet() {
		cr, err := e.compile(r, Exit)
		if err != nil {
			return nil, err
		}
		e.exit = append(e.exit, cr)
	}
	return e, nil
}

// compile resolves the indicator lines a rule needs, computing each at most
// once per run via the cache.
func (e *Evaluator) compile(r Rule, side Side) (compiledRule, error) {
	if err := r.Validate(); err != nil {
		return compiledRule{}, err
	}

	closes := e.bars.Closes()
	highs := e.bars.Highs()
	lows := e.bars.Lows()
	key := r.Key()
	p := func(name string) int { return int(r.Params[name]) }

	var series [][]float64
	switch r.Kind {
	case SMACross:
		series = [][]float64{
			e.cache.Get(fmt.Sprintf("SMA|period=%d", p("fast")), func() []float64 {
				return indicators.SMA(closes, p("fast"))
			}),
			e.cache.Get(fmt.Sprintf("SMA|period=%d", p("slow")), func() []float64 {
				return indicators.SMA(closes, p("slow"))
			}),
		}

	case RSIThreshold:
		series = [][]float64{
			e.cache.Get(fmt.Sprintf("RSI|period=%d", p("period")), func() []float64 {
				return indicators.RSI(closes, p("period"))
			}),
		}

	case MACDCross:
		macd, sig := e.cache.GetPair(key+"|macd", key+"|signal", func() ([]float64, []float64) {
			return indicators.MACD(closes, p("fast"), p("slow"), p("signal"))
		})
		series = [][]float64{macd, sig}

	case StochasticCross:
		k, d := e.cache.GetPair(key+"|k", key+"|d", func() ([]float64, []float64) {
			return indicators.Stochastic(highs, lows, closes, p("period"))
		})
		series = [][]float64{k, d}

	case BollingerBreak:
		up, lo := e.cache.GetPair(key+"|upper", key+"|lower", func() ([]float64, []float64) {
			return indicators.Bollinger(closes, p("period"), r.Params["std"])
		})
		series = [][]float64{up, lo}

	case WilliamsRThreshold:
		series = [][]float64{
			e.cache.Get(key, func() []float64 {
				return indicators.WilliamsR(highs, lows, closes, p("period"))
			}),
		}

	case DonchianBreakout:
		up, lo := e.cache.GetPair(key+"|upper", key+"|lower", func() ([]float64, []float64) {
			return indicators.Donchian(highs, lows, p("period"))
		})
		series = [][]float64{up, lo}

	default:
		return compiledRule{}, fmt.Errorf("unknown rule kind %q", r.Kind)
	}

	return compiledRule{rule: r, side: side, series: series, closes: closes}, nil
}

// Entry reports whether every configured entry rule fires at bar i. An empty
// entry set never fires.
func (e *Evaluator) Entry(i int) bool {
	if len(e.entry) == 0 {
		return false
	}
	for _, cr := range e.entry {
		if !cr.fires(i) {
			return false
		}
	}
	return true
}

// Exit reports whether any configured exit rule fires at bar i. An empty
// exit set never fires.
func (e *Evaluator) Exit(i int) bool {
	for _, cr := range e.exit {
		if cr.fires(i) {
			return true
		}
	}
	return false
}

// fires evaluates the rule at bar i for its side. A rule whose indicator has
// no value at the indices it reads evaluates to false; it never aborts the
// run.
func (cr compiledRule) fires(i int) bool {
	switch cr.rule.Kind {
	case SMACross, MACDCross, StochasticCross:
		// Crossover of line a over (entry) or under (exit) line b.
		a, b := cr.series[0], cr.series[1]
		if i < 1 || !defined(a[i-1], b[i-1], a[i], b[i]) {
			return false
		}
		if cr.side == Entry {
			return a[i-1] < b[i-1] && a[i] > b[i]
		}
		return a[i-1] > b[i-1] && a[i] < b[i]

	case RSIThreshold, WilliamsRThreshold:
		v := cr.series[0][i]
		if !indicators.Defined(v) {
			return false
		}
		threshold := cr.rule.Params["threshold"]
		if cr.side == Entry {
			return v < threshold
		}
		return v > threshold

	case BollingerBreak:
		// Buy when price breaks the lower band, sell when it breaks the upper.
		up, lo := cr.series[0][i], cr.series[1][i]
		if !defined(up, lo) {
			return false
		}
		if cr.side == Entry {
			return cr.closes[i] < lo
		}
		return cr.closes[i] > up

	case DonchianBreakout:
		// Channel excludes the current bar: close above the prior-N high
		// buys, close below the prior-N low sells.
		up, lo := cr.series[0][i], cr.series[1][i]
		if !defined(up, lo) {
			return false
		}
		if cr.side == Entry {
			return cr.closes[i] > up
		}
		return cr.closes[i] < lo
	}
	return false
}

func defined(vs ...float64) bool {
	for _, v := range vs {
		if !indicators.Defined(v) {
			return false
		}
	}
	return true
}

// EntryNote and ExitNote build the human-readable indicator snapshot attached
// to each trade for display, e.g. "SMA(10):101.2 / SMA(60):99.8 | RSI(14):27.3".
func (e *Evaluator) EntryNote(i int) string { return joinNotes(e.entry, i) }
func (e *Evaluator) ExitNote(i int) string  { return joinNotes(e.exit, i) }

func joinNotes(rules []compiledRule, i int) string {
	out := ""
	for _, cr := range rules {
		n := cr.note(i)
		if n == "" {
			continue
		}
		if out != "" {
			out += " | "
		}
		out += n
	}
	return out
}

func (cr compiledRule) note(i int) string {
	num := func(v float64) float64 {
		if !indicators.Defined(v) {
			return 0
		}
		return v
	}
	p := func(name string) int { return int(cr.rule.Params[name]) }

	switch cr.rule.Kind {
	case SMACross:
		return fmt.Sprintf("SMA(%d):%.2f / SMA(%d):%.2f",
			p("fast"), num(cr.series[0][i]), p("slow"), num(cr.series[1][i]))
	case RSIThreshold:
		return fmt.Sprintf("RSI(%d):%.2f", p("period"), num(cr.series[0][i]))
	case MACDCross:
		return fmt.Sprintf("MACD:%.2f / Sig:%.2f", num(cr.series[0][i]), num(cr.series[1][i]))
	case StochasticCross:
		return fmt.Sprintf("K:%.2f / D:%.2f", num(cr.series[0][i]), num(cr.series[1][i]))
	case BollingerBreak:
		return fmt.Sprintf("Upper:%.2f / Lower:%.2f", num(cr.series[0][i]), num(cr.series[1][i]))
	case WilliamsRThreshold:
		return fmt.Sprintf("%%R(%d):%.2f", p("period"), num(cr.series[0][i]))
	case DonchianBreakout:
		return fmt.Sprintf("DonchianH:%.2f / DonchianL:%.2f", num(cr.series[0][i]), num(cr.series[1][i]))
	}
	return ""
}
