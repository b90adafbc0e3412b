package analytics

import (
	"math"
	"sort"

	"github.com/rustyeddy/stratlab/backtest"
)

// buildHeatmap resamples the equity series to month-end values and computes
// the month-over-month percent change, indexed year then month. The first
// month has no predecessor and is skipped, as is any non-finite value.
func buildHeatmap(equity []backtest.EquityPoint) map[int]map[int]float64 {
	type yearMonth struct{ year, month int }

	monthEnd := map[yearMonth]float64{}
	var order []yearMonth
	for _, ep := range equity {
		ym := yearMonth{ep.Date.Year(), int(ep.Date.Month())}
		if _, seen := monthEnd[ym]; !seen {
			order = append(order, ym)
		}
		monthEnd[ym] = ep.Equity // later points overwrite: last bar of the month wins
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].month < order[j].month
	})

	out := map[int]map[int]float64{}
	for i := 1; i < len(order); i++ {
		prev := monthEnd[order[i-1]]
		cur := monthEnd[order[i]]
		if prev == 0 {
			continue
		}
		change := (cur - prev) / prev * 100
		if math.IsNaN(change) || math.IsInf(change, 0) {
			continue
		}
		ym := order[i]
		if out[ym.year] == nil {
			out[ym.year] = map[int]float64{}
		}
		out[ym.year][ym.month] = safeNum(change, 2)
	}
	return out
}
