package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stratlab/config"
	"github.com/rustyeddy/stratlab/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest API and dashboard",
	Long: `Serve starts the HTTP server: POST /api/backtest runs a backtest and
returns the full result record; the static dashboard is served from the
configured directory.

Example:
  stratlab serve --addr :8000`,
	RunE: runServeCmd,
}

var (
	serveAddr   string
	serveConfig string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "path to config YAML/JSON")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	var appCfg *config.Config
	var err error
	if serveConfig != "" {
		appCfg, err = config.LoadFromFile(serveConfig)
	} else {
		appCfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if serveAddr != "" {
		appCfg.Server.Addr = serveAddr
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		appCfg.Logging.Level = logLevel
	}

	log := newLogger(appCfg.Logging.Level)

	feed, closeFeed, err := buildFeed(appCfg)
	if err != nil {
		return err
	}
	defer closeFeed()

	srv := server.New(feed, appCfg.Server.StaticDir, log)

	log.Info("listening", "addr", appCfg.Server.Addr, "static", appCfg.Server.StaticDir)
	if err := http.ListenAndServe(appCfg.Server.Addr, srv.Handler()); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
