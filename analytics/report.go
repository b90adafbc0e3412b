// Package analytics turns a raw backtest run into the reported result
// record: curves, distributions, and summary statistics.
package analytics

import (
	"math"
	"time"

	"github.com/rustyeddy/stratlab/backtest"
	"github.com/rustyeddy/stratlab/strategy"
)

const dateLayout = "2006-01-02"

// Point is one sample of a reported time series.
type Point struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// TradeMarker is a chart annotation for one fill.
type TradeMarker struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
	Type  string  `json:"type"` // "buy" or "sell"
}

// DetailedTrade is one ledger row with indicator context for display.
type DetailedTrade struct {
	EntryDate  string  `json:"entry_date"`
	ExitDate   string  `json:"exit_date"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Size       float64 `json:"size"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
	Reason     string  `json:"reason"`
	EntryNote  string  `json:"entry_note"`
	ExitNote   string  `json:"exit_note"`
}

// HistogramBin is one bucket of the trade return distribution.
type HistogramBin struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Center   float64 `json:"center"`
	Positive bool    `json:"positive"`
}

// Report is the full result record handed to the presentation layer. Every
// numeric field has been sanitized: no NaN or Infinity survives to here.
type Report struct {
	RunID  string `json:"run_id"`
	Symbol string `json:"symbol"`

	FinalEquity        float64 `json:"final_equity"`
	TotalReturn        float64 `json:"total_return"`
	AnnualReturn       float64 `json:"annual_return"`
	BuyAndHoldReturn   float64 `json:"buy_and_hold_return"`
	WinRate            float64 `json:"win_rate"`
	WinningTrades      int     `json:"winning_trades"`
	TotalTrades        int     `json:"total_trades"`
	AvgPnL             float64 `json:"avg_pnl"`
	MaxConsecutiveLoss int     `json:"max_consecutive_loss"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	ProfitFactor       float64 `json:"profit_factor"`

	EquityCurve     []Point `json:"equity_curve"`
	DrawdownCurve   []Point `json:"drawdown_curve"`
	ROICurve        []Point `json:"roi_curve"`
	BuyAndHoldCurve []Point `json:"buy_and_hold_curve"`
	PriceData       []Point `json:"price_data"`

	Trades         []TradeMarker           `json:"trades"`
	DetailedTrades []DetailedTrade         `json:"detailed_trades"`
	Histogram      []HistogramBin          `json:"pnl_histogram"`
	HeatmapData    map[int]map[int]float64 `json:"heatmap_data"`
}

// Build aggregates the run into the result record.
func Build(run *backtest.Run, symbol string) *Report {
	r := &Report{
		RunID:       run.ID,
		Symbol:      symbol,
		HeatmapData: map[int]map[int]float64{},
	}

	buildCurves(r, run)
	buildTrades(r, run)
	buildSummary(r, run)
	r.Histogram = buildHistogram(run.Trades)
	r.HeatmapData = buildHeatmap(run.Equity)
	return r
}

func buildCurves(r *Report, run *backtest.Run) {
	initial := startingCapital(run)
	firstClose := run.Bars.First().Close

	peak := math.Inf(-1)
	for i, ep := range run.Equity {
		date := ep.Date.Format(dateLayout)
		bar := run.Bars[i]

		r.EquityCurve = append(r.EquityCurve, Point{date, safeNum(ep.Equity, 2)})
		r.PriceData = append(r.PriceData, Point{date, safeNum(bar.Close, 2)})
		r.BuyAndHoldCurve = append(r.BuyAndHoldCurve, Point{date, safeNum(bar.Close/firstClose*initial, 2)})

		// Drawdown from the running equity peak; 0 at every new high.
		peak = math.Max(peak, ep.Equity)
		dd := 0.0
		if peak > 0 {
			dd = (ep.Equity - peak) / peak * 100
		}
		r.DrawdownCurve = append(r.DrawdownCurve, Point{date, safeNum(dd, 2)})

		// ROI against capital contributed so far. With constant invested
		// capital this is the plain return curve.
		roi := 0.0
		if inv := run.Invested[i]; inv > 0 {
			roi = (ep.Equity - inv) / inv * 100
		}
		r.ROICurve = append(r.ROICurve, Point{date, safeNum(roi, 2)})
	}
}

func buildTrades(r *Report, run *backtest.Run) {
	for _, t := range run.Trades {
		entryDate := t.EntryDate.Format(dateLayout)
		exitDate := t.ExitDate.Format(dateLayout)

		r.Trades = append(r.Trades,
			TradeMarker{Time: entryDate, Price: safeNum(t.EntryPrice, 2), Type: "buy"},
			TradeMarker{Time: exitDate, Price: safeNum(t.ExitPrice, 2), Type: "sell"},
		)
		r.DetailedTrades = append(r.DetailedTrades, DetailedTrade{
			EntryDate:  entryDate,
			ExitDate:   exitDate,
			EntryPrice: safeNum(t.EntryPrice, 2),
			ExitPrice:  safeNum(t.ExitPrice, 2),
			Size:       t.Size,
			PnL:        safeNum(t.PnL, 0),
			ReturnPct:  safeNum(t.ReturnPct, 2),
			Reason:     t.Reason,
			EntryNote:  run.Eval.EntryNote(t.EntryBar),
			ExitNote:   run.Eval.ExitNote(t.ExitBar),
		})
	}

	// Periodic contributions chart as individual buy markers.
	for _, f := range run.Fills {
		r.Trades = append(r.Trades, TradeMarker{
			Time:  f.Date.Format(dateLayout),
			Price: safeNum(f.Price, 2),
			Type:  "buy",
		})
	}
}

func buildSummary(r *Report, run *backtest.Run) {
	initial := startingCapital(run)
	final := run.Equity[len(run.Equity)-1].Equity
	r.FinalEquity = safeNum(final, 0)

	if initial > 0 {
		r.TotalReturn = safeNum((final-initial)/initial*100, 2)
		r.AnnualReturn = safeNum(annualizedReturn(initial, final, run.Bars.First().Date, run.Bars.Last().Date), 2)
		first := run.Bars.First().Close
		last := run.Bars.Last().Close
		r.BuyAndHoldReturn = safeNum((last-first)/first*100, 2)
	}

	wins, losses := 0, 0
	var pnlSum, grossWin, grossLoss float64
	streak, maxStreak := 0, 0
	for _, t := range run.Trades {
		pnlSum += t.PnL
		if t.PnL > 0 {
			wins++
			grossWin += t.PnL
		} else if t.PnL < 0 {
			losses++
			grossLoss += -t.PnL
		}

		// Longest run of consecutive losing trades, in close order.
		if t.PnL < 0 {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}

	n := len(run.Trades)
	r.TotalTrades = n
	r.WinningTrades = wins
	r.MaxConsecutiveLoss = maxStreak
	if n > 0 {
		r.WinRate = safeNum(float64(wins)/float64(n)*100, 2)
		r.AvgPnL = safeNum(pnlSum/float64(n), 0)
	}
	if grossLoss > 0 {
		r.ProfitFactor = safeNum(grossWin/grossLoss, 2)
	}

	maxDD := 0.0
	for _, p := range r.DrawdownCurve {
		maxDD = math.Min(maxDD, p.Value)
	}
	r.MaxDrawdown = safeNum(maxDD, 2)
	r.SharpeRatio = safeNum(sharpe(run.Equity), 2)
}

// startingCapital is the initial cash for rule modes and the total
// contributed capital for periodic mode.
func startingCapital(run *backtest.Run) float64 {
	if run.Config.Mode == strategy.ModePeriodic {
		return run.Invested[len(run.Invested)-1]
	}
	return run.Config.InitialCash
}

// annualizedReturn compounds the total return over the calendar span.
func annualizedReturn(initial, final float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if days <= 0 || initial <= 0 || final <= 0 {
		return 0
	}
	return (math.Pow(final/initial, 365.25/days) - 1) * 100
}

// sharpe is the annualized Sharpe ratio of daily equity returns, zero risk
// free rate, sqrt(252) scaling.
func sharpe(equity []backtest.EquityPoint) float64 {
	if len(equity) < 3 {
		return 0
	}

	rets := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		rets = append(rets, (equity[i].Equity-prev)/prev)
	}
	if len(rets) < 2 {
		return 0
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets) - 1)
	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(252)
}
