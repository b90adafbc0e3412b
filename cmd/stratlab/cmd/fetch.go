package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratlab/config"
	"github.com/rustyeddy/stratlab/datafeed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily bars and save them as CSV",
	Long: `Fetch downloads daily bars for a symbol and writes them to a CSV file
that backtest --csv can read.

Example:
  stratlab fetch --symbol AAPL --start 2020-01-01 --end 2023-12-31 --out aapl.csv`,
	RunE: runFetchCmd,
}

var (
	fetchSymbol string
	fetchStart  string
	fetchEnd    string
	fetchOut    string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchSymbol, "symbol", "y", "", "symbol to fetch (required)")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output CSV path (required)")

	fetchCmd.MarkFlagRequired("symbol")
	fetchCmd.MarkFlagRequired("start")
	fetchCmd.MarkFlagRequired("end")
	fetchCmd.MarkFlagRequired("out")
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", fetchStart)
	if err != nil {
		return fmt.Errorf("bad --start %q", fetchStart)
	}
	end, err := time.Parse("2006-01-02", fetchEnd)
	if err != nil {
		return fmt.Errorf("bad --end %q", fetchEnd)
	}

	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	feed, closeFeed, err := buildFeed(appCfg)
	if err != nil {
		return err
	}
	defer closeFeed()

	bars, err := feed.Fetch(cmd.Context(), fetchSymbol, start, end)
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}

	if err := datafeed.SaveCSV(fetchOut, bars); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	fmt.Printf("Wrote %d bars to %s\n", len(bars), fetchOut)
	return nil
}
