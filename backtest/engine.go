// Package backtest drives a strategy configuration across a daily price
// history and produces the raw trade ledger and equity series.
//
// A run is a strictly sequential fold over the bars: decisions at bar i see
// only bars <= i. There is no concurrency within a run; concurrent runs are
// safe because every run owns its own Config, Evaluator, and state.
package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/stratlab/internal/id"
	"github.com/rustyeddy/stratlab/market"
	"github.com/rustyeddy/stratlab/strategy"
)

// MinBars is the floor on usable history; a run also needs at least the
// longest configured indicator lookback.
const MinBars = 60

// ErrInsufficientData marks a history too short for the configured lookbacks.
var ErrInsufficientData = errors.New("insufficient history")

// Trade is one completed round trip, appended to the ledger in close order.
type Trade struct {
	EntryBar   int
	ExitBar    int
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64 // whole units
	PnL        float64 // commission-adjusted
	ReturnPct  float64
	Reason     string
}

// Fill records one periodic-contribution buy.
type Fill struct {
	Bar      int
	Date     time.Time
	Price    float64
	Units    float64
	Invested float64 // contribution amount, before the fixed fee
}

// EquityPoint marks the account value at one bar, open position included at
// the bar's close.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// Run is the complete output of one backtest: ledger, equity series, and the
// evaluator (kept so analytics can re-read indicator values for trade
// annotations). A failed run returns an error and no partial Run.
type Run struct {
	ID     string
	Bars   market.History
	Config *strategy.Config
	Eval   *strategy.Evaluator

	Trades   []Trade
	Fills    []Fill
	Equity   []EquityPoint
	Invested []float64 // cumulative contributed capital per bar
}

// position is the open-position state. It exists only while a position is
// open and is discarded on close.
type position struct {
	open       bool
	entryBar   int
	entryPrice float64
	units      float64
	stop       float64 // 0 means none
	take       float64 // 0 means none
	peak       float64 // highest close since entry, for the trailing ratchet
}

type engine struct {
	bars market.History
	cfg  *strategy.Config
	eval *strategy.Evaluator

	cash     float64
	pos      position
	trades   []Trade
	fills    []Fill
	equity   []EquityPoint
	invested []float64
}

// Execute runs the configuration against the history. It validates inputs
// first: a history shorter than the required lookback is rejected before the
// fold starts.
func Execute(bars market.History, cfg *strategy.Config) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}

	need := cfg.MaxLookback()
	if need < MinBars {
		need = MinBars
	}
	if len(bars) < need {
		return nil, fmt.Errorf("%w: need %d bars, got %d", ErrInsufficientData, need, len(bars))
	}

	eval, err := strategy.NewEvaluator(bars, cfg)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	e := &engine{
		bars: bars,
		cfg:  cfg,
		eval: eval,
		cash: cfg.InitialCash,
	}

	if cfg.Mode == strategy.ModePeriodic {
		err = e.runPeriodic()
	} else {
		err = e.runRules()
	}
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:       id.New(),
		Bars:     bars,
		Config:   cfg,
		Eval:     eval,
		Trades:   e.trades,
		Fills:    e.fills,
		Equity:   e.equity,
		Invested: e.invested,
	}, nil
}

// runRules executes the rule-driven state machine. Per-bar priority:
// trailing ratchet, then stop/take on intrabar high/low, then rule exit,
// then rule entry. A stop exit and a new entry can share a bar; the exit
// always resolves first.
func (e *engine) runRules() error {
	comm := e.cfg.CommissionRate()

	for i, bar := range e.bars {
		// 1) Trailing stop ratchet: the stop only ever moves up while open.
		if e.pos.open && e.cfg.TrailingStopPct > 0 {
			e.pos.peak = math.Max(e.pos.peak, bar.Close)
			candidate := e.pos.peak * (1 - e.cfg.TrailingStopPct/100)
			e.pos.stop = math.Max(e.pos.stop, candidate)
		}

		// 2) Stop/take on this bar's range, before any rule evaluation.
		if e.pos.open {
			if px, reason, hit := e.checkStops(bar); hit {
				e.closePosition(i, px, comm, reason)
			}
		}

		// 3) Rule exit at the bar's execution price.
		if e.pos.open && e.eval.Exit(i) {
			e.closePosition(i, bar.Close, comm, "Signal")
		}

		// 4) Rule entry. The final bar never opens: a round trip needs a
		// later bar to exit on.
		if !e.pos.open && i < len(e.bars)-1 && e.eval.Entry(i) {
			if err := e.openPosition(i, bar, comm); err != nil {
				return err
			}
		}

		e.mark(bar, e.cfg.InitialCash)
	}

	// Materialize any open position as a final trade.
	if e.pos.open {
		last := len(e.bars) - 1
		e.closePosition(last, e.bars[last].Close, comm, "EndOfData")
		e.remark(e.bars[last])
	}
	return nil
}

// checkStops models stop/take hits within a bar. If both levels are hit in
// the same bar the stop wins (pessimistic fill).
func (e *engine) checkStops(bar market.Bar) (exitPx float64, reason string, hit bool) {
	stopHit := e.pos.stop > 0 && bar.Low <= e.pos.stop
	takeHit := e.pos.take > 0 && bar.High >= e.pos.take

	switch {
	case stopHit:
		return e.pos.stop, "StopLoss", true
	case takeHit:
		return e.pos.take, "TakeProfit", true
	}
	return 0, "", false
}

// openPosition buys the maximum whole-unit size the available cash affords at
// the bar's close, commission included. An entry signal the account cannot
// fund at all is a run fault.
func (e *engine) openPosition(i int, bar market.Bar, comm float64) error {
	unitCost := bar.Close * (1 + comm)
	units := math.Floor(e.cash / unitCost)
	if units < 1 {
		return fmt.Errorf("entry at bar %d (%s): cash %.2f cannot buy one unit at %.2f",
			i, bar.Date.Format("2006-01-02"), e.cash, unitCost)
	}

	e.cash -= units * unitCost

	pos := position{
		open:       true,
		entryBar:   i,
		entryPrice: bar.Close,
		units:      units,
		peak:       bar.Close,
	}

	// Initial stop: the higher (tighter) of the fixed stop-loss and the
	// trailing stop's starting level when both are configured.
	if e.cfg.StopLossPct > 0 {
		pos.stop = bar.Close * (1 - e.cfg.StopLossPct/100)
	}
	if e.cfg.TrailingStopPct > 0 {
		pos.stop = math.Max(pos.stop, bar.Close*(1-e.cfg.TrailingStopPct/100))
	}
	if e.cfg.TakeProfitPct > 0 {
		pos.take = bar.Close * (1 + e.cfg.TakeProfitPct/100)
	}

	e.pos = pos
	return nil
}

func (e *engine) closePosition(i int, exitPx float64, comm float64, reason string) {
	p := e.pos
	e.pos = position{}

	cost := p.units * p.entryPrice * (1 + comm)
	proceeds := p.units * exitPx * (1 - comm)
	e.cash += proceeds

	pnl := proceeds - cost
	returnPct := 0.0
	if cost > 0 {
		returnPct = pnl / cost * 100
	}

	e.trades = append(e.trades, Trade{
		EntryBar:   p.entryBar,
		ExitBar:    i,
		EntryDate:  e.bars[p.entryBar].Date,
		ExitDate:   e.bars[i].Date,
		EntryPrice: p.entryPrice,
		ExitPrice:  exitPx,
		Size:       p.units,
		PnL:        pnl,
		ReturnPct:  returnPct,
		Reason:     reason,
	})
}

// mark appends the bar's equity point, the open position valued at the close.
func (e *engine) mark(bar market.Bar, investedSoFar float64) {
	eq := e.cash
	if e.pos.open {
		eq += e.pos.units * bar.Close
	}
	e.equity = append(e.equity, EquityPoint{Date: bar.Date, Equity: eq})
	e.invested = append(e.invested, investedSoFar)
}

// remark replaces the final equity point after an end-of-data close.
func (e *engine) remark(bar market.Bar) {
	e.equity[len(e.equity)-1] = EquityPoint{Date: bar.Date, Equity: e.cash}
}
