package analytics

import (
	"fmt"
	"io"
)

// PrintReport writes a plain-text summary of the result record.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	if len(r.PriceData) > 0 {
		fmt.Fprintf(w, "Period:        %s .. %s (%d bars)\n",
			r.PriceData[0].Time, r.PriceData[len(r.PriceData)-1].Time, len(r.PriceData))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.TotalReturn)
	fmt.Fprintf(w, "Annualized:    %.2f%%\n", r.AnnualReturn)
	fmt.Fprintf(w, "Buy & Hold:    %.2f%%\n", r.BuyAndHoldReturn)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe Ratio:  %.2f\n", r.SharpeRatio)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trades")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total:         %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "Avg PnL:       %.2f\n", r.AvgPnL)
	fmt.Fprintf(w, "Max Loss Run:  %d\n", r.MaxConsecutiveLoss)
	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}

	if len(r.DetailedTrades) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Ledger")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, t := range r.DetailedTrades {
			fmt.Fprintf(w, "%s -> %s  %8.2f -> %8.2f  size=%.0f  pnl=%10.2f (%6.2f%%)  %s\n",
				t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice, t.Size, t.PnL, t.ReturnPct, t.Reason)
		}
	}

	fmt.Fprintln(w)
}
