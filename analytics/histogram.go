package analytics

import (
	"fmt"
	"math"

	"github.com/rustyeddy/stratlab/backtest"
)

// buildHistogram bins the trade return-percentage distribution. The bin
// count follows Sturges' rule; each bin is labelled by its rounded edges and
// tagged by the sign of its center.
func buildHistogram(trades []backtest.Trade) []HistogramBin {
	if len(trades) == 0 {
		return nil
	}

	rets := make([]float64, 0, len(trades))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range trades {
		r := t.ReturnPct
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		rets = append(rets, r)
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	if len(rets) == 0 {
		return nil
	}

	if lo == hi {
		return []HistogramBin{{
			Label:    fmt.Sprintf("%.1f%% ~ %.1f%%", lo, hi),
			Count:    len(rets),
			Center:   safeNum(lo, 2),
			Positive: lo >= 0,
		}}
	}

	nBins := int(math.Ceil(math.Log2(float64(len(rets))))) + 1
	width := (hi - lo) / float64(nBins)

	bins := make([]HistogramBin, nBins)
	for i := range bins {
		left := lo + float64(i)*width
		right := left + width
		center := (left + right) / 2
		bins[i] = HistogramBin{
			Label:    fmt.Sprintf("%.1f%% ~ %.1f%%", left, right),
			Center:   safeNum(center, 2),
			Positive: center >= 0,
		}
	}

	for _, r := range rets {
		idx := int((r - lo) / width)
		if idx >= nBins {
			idx = nBins - 1 // the max lands in the last bin
		}
		bins[idx].Count++
	}
	return bins
}
