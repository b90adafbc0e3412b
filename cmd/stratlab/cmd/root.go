package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stratlab",
	Short: "A rule-based trading strategy backtester",
	Long: `Stratlab evaluates rule-based trading strategies against daily price
history and reports performance analytics.

It provides tools for:
  - Backtesting indicator-driven entry/exit rules (SMA, RSI, MACD,
    stochastic, Bollinger, Williams %R, Donchian)
  - Risk controls: stop-loss, take-profit, trailing stop
  - Periodic-contribution (dollar-cost-averaging) simulations
  - Fetching and caching daily bars from Alpaca
  - Serving the backtest API and dashboard over HTTP`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// newLogger builds the process logger: JSON lines on stderr at the requested
// level.
func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
