package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratlab/analytics"
	"github.com/rustyeddy/stratlab/backtest"
	"github.com/rustyeddy/stratlab/config"
	"github.com/rustyeddy/stratlab/datafeed"
	"github.com/rustyeddy/stratlab/market"
	"github.com/rustyeddy/stratlab/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy against daily price history",
	Long: `Backtest runs a strategy configuration against daily bars loaded from a
local CSV file or fetched from Alpaca.

Example:
  stratlab backtest --csv data/2330.csv --strategy strategies/sma_rsi.yaml
  stratlab backtest --symbol AAPL --start 2020-01-01 --end 2023-12-31`,
	RunE: runBacktestCmd,
}

var (
	btCSVPath  string
	btSymbol   string
	btStart    string
	btEnd      string
	btStrategy string
	btJSONOut  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btCSVPath, "csv", "c", "", "path to bar CSV (date,open,high,low,close,volume)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "y", "", "symbol to fetch when no CSV is given")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "fetch start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "fetch end date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "path to strategy YAML/JSON (default: basic SMA+RSI)")
	backtestCmd.Flags().StringVarP(&btJSONOut, "json", "j", "", "write the full result record to this file")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	bars, symbol, err := loadBars(cmd.Context())
	if err != nil {
		return err
	}

	cfg := strategy.Default()
	if btStrategy != "" {
		cfg, err = strategy.LoadFromFile(btStrategy)
		if err != nil {
			return err
		}
	}

	run, err := backtest.Execute(bars, cfg)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	report := analytics.Build(run, symbol)
	analytics.PrintReport(os.Stdout, report)

	if btJSONOut != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := os.WriteFile(btJSONOut, data, 0644); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Printf("Result written to %s\n", btJSONOut)
	}
	return nil
}

// loadBars resolves the price history: a CSV file when given, otherwise a
// fetch through the configured data source chain.
func loadBars(ctx context.Context) (market.History, string, error) {
	if btCSVPath != "" {
		h, err := datafeed.LoadCSV(btCSVPath)
		if err != nil {
			return nil, "", fmt.Errorf("load bars: %w", err)
		}
		symbol := btSymbol
		if symbol == "" {
			symbol = btCSVPath
		}
		return h, symbol, nil
	}

	if btSymbol == "" || btStart == "" || btEnd == "" {
		return nil, "", fmt.Errorf("either --csv or --symbol with --start and --end is required")
	}
	start, err := time.Parse("2006-01-02", btStart)
	if err != nil {
		return nil, "", fmt.Errorf("bad --start %q", btStart)
	}
	end, err := time.Parse("2006-01-02", btEnd)
	if err != nil {
		return nil, "", fmt.Errorf("bad --end %q", btEnd)
	}

	appCfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	feed, closeFeed, err := buildFeed(appCfg)
	if err != nil {
		return nil, "", err
	}
	defer closeFeed()

	h, err := feed.Fetch(ctx, btSymbol, start, end)
	if err != nil {
		return nil, "", fmt.Errorf("fetch bars: %w", err)
	}
	return h, btSymbol, nil
}

// buildFeed assembles the data source chain: Alpaca behind the on-disk bar
// cache behind the in-memory memoizer.
func buildFeed(cfg *config.Config) (datafeed.Source, func(), error) {
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		return nil, nil, fmt.Errorf("ALPACA_API_KEY and ALPACA_API_SECRET are required to fetch data")
	}

	var feed datafeed.Source = datafeed.NewAlpacaSource(
		cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	closer := func() {}

	if cfg.Data.CachePath != "" {
		cache, err := datafeed.NewSQLiteCache(cfg.Data.CachePath, feed)
		if err != nil {
			return nil, nil, fmt.Errorf("open bar cache: %w", err)
		}
		feed = cache
		closer = func() { cache.Close() }
	}

	return datafeed.NewMemoSource(feed), closer, nil
}
