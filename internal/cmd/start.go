package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/observability"
)

var (
	startInterval time.Duration
	startWatches  []string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the polling loop until interrupted",
	Long: `Polls the API on a fixed interval, records every call to the audit
store, and logs recommendations and market alerts as they arise. Stops
cleanly on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, spec := range startWatches {
			watch, err := parseWatchSpec(spec)
			if err != nil {
				return err
			}
			if err := app.store.UpsertMarketWatch(ctx, watch); err != nil {
				return err
			}
		}

		interval := app.cfg.Advisor.Interval
		if startInterval > 0 {
			interval = startInterval
		}

		observability.CLILogger.Info("Polling started",
			zap.Duration("interval", interval),
			zap.Int("requests_per_minute", app.cfg.API.MaxRequestsPerMinute))

		if err := app.advisor.Run(ctx, interval); err != nil {
			return err
		}

		observability.CLILogger.Info("Polling stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().DurationVar(&startInterval, "interval", 0, "poll interval (overrides config)")
	startCmd.Flags().BoolVar(&dryRun, "dry-run", false, "mark recorded plans as dry-run")
	startCmd.Flags().BoolVar(&simulateMoney, "simulate-money", false, "overlay a synthetic cash balance on snapshots")
	startCmd.Flags().StringArrayVar(&startWatches, "watch", nil, "add a market watch before starting (ITEM_ID[:BUY][:SELL], repeatable)")
}
