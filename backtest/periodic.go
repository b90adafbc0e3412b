package backtest

import (
	"math"
	"sort"
)

// runPeriodic executes dollar-cost-averaging mode. No rule or stop logic
// applies: each configured day of the month injects the contribution, deducts
// the fixed fee, and buys the largest whole-unit size the remainder affords
// at the bar's close. A contribution day that falls on a non-trading day is
// caught up on the next available bar of the same month.
func (e *engine) runPeriodic() error {
	p := e.cfg.Periodic

	days := append([]int(nil), p.DaysOfMonth...)
	sort.Ints(days)

	var (
		units     float64
		invested  float64
		applied   = map[int]bool{} // index into days, reset each month
		lastMonth = -1
	)

	for i, bar := range e.bars {
		monthKey := bar.Date.Year()*12 + int(bar.Date.Month())
		if monthKey != lastMonth {
			applied = map[int]bool{}
			lastMonth = monthKey
		}

		for di, day := range days {
			if applied[di] || bar.Date.Day() < day {
				continue
			}
			applied[di] = true

			e.cash += p.Amount
			invested += p.Amount
			e.cash -= p.FixedFee

			bought := math.Floor(e.cash / bar.Close)
			if bought >= 1 {
				e.cash -= bought * bar.Close
				units += bought
				e.fills = append(e.fills, Fill{
					Bar:      i,
					Date:     bar.Date,
					Price:    bar.Close,
					Units:    bought,
					Invested: p.Amount,
				})
			}
		}

		eq := e.cash + units*bar.Close
		e.equity = append(e.equity, EquityPoint{Date: bar.Date, Equity: eq})
		e.invested = append(e.invested, invested)
	}

	// Force-close on the final bar so the run reports a materialized trade.
	if units > 0 {
		last := len(e.bars) - 1
		bar := e.bars[last]
		proceeds := units * bar.Close
		e.cash += proceeds

		pnl := e.cash - invested
		returnPct := 0.0
		if invested > 0 {
			returnPct = pnl / invested * 100
		}

		e.trades = append(e.trades, Trade{
			EntryBar:   e.fills[0].Bar,
			ExitBar:    last,
			EntryDate:  e.fills[0].Date,
			ExitDate:   bar.Date,
			EntryPrice: vwap(e.fills),
			ExitPrice:  bar.Close,
			Size:       units,
			PnL:        pnl,
			ReturnPct:  returnPct,
			Reason:     "EndOfData",
		})
		e.equity[last] = EquityPoint{Date: bar.Date, Equity: e.cash}
	}
	return nil
}

// vwap is the volume-weighted average fill price across the contributions.
func vwap(fills []Fill) float64 {
	var units, notional float64
	for _, f := range fills {
		units += f.Units
		notional += f.Units * f.Price
	}
	if units == 0 {
		return 0
	}
	return notional / units
}
