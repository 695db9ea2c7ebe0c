package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the market watch list",
}

var watchAddCmd = &cobra.Command{
	Use:   "add ITEM_ID[:BUY][:SELL]",
	Short: "Add or update a watched item",
	Long: `Adds an item to the market watch list, or updates its thresholds if
already watched. BUY and SELL are price thresholds; either may be empty.

Examples:
  tornwatch watch add 206:800:1200   alert at or below 800, at or above 1200
  tornwatch watch add 206:800        buy alert only
  tornwatch watch add 206::1200      sell alert only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, err := parseWatchSpec(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.UpsertMarketWatch(cmd.Context(), watch); err != nil {
			return err
		}
		fmt.Printf("Watching item %d\n", watch.ItemID)
		return nil
	},
}

var watchListFormat string

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched items",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(watchListFormat)
		if err != nil {
			return err
		}

		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		watches, err := db.ListMarketWatch(cmd.Context())
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatStatus(&core.StatusReport{Watches: watches})
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

// parseWatchSpec parses ITEM_ID[:BUY][:SELL]. At least one threshold must be
// set or the watch could never alert.
func parseWatchSpec(spec string) (core.MarketWatch, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 1 || len(parts) > 3 {
		return core.MarketWatch{}, fmt.Errorf("invalid watch spec %q, want ITEM_ID[:BUY][:SELL]", spec)
	}

	itemID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || itemID <= 0 {
		return core.MarketWatch{}, fmt.Errorf("invalid item id %q", parts[0])
	}

	watch := core.MarketWatch{ItemID: itemID}
	if len(parts) > 1 {
		if watch.BuyThreshold, err = parseThreshold(parts[1]); err != nil {
			return core.MarketWatch{}, fmt.Errorf("invalid buy threshold %q", parts[1])
		}
	}
	if len(parts) > 2 {
		if watch.SellThreshold, err = parseThreshold(parts[2]); err != nil {
			return core.MarketWatch{}, fmt.Errorf("invalid sell threshold %q", parts[2])
		}
	}

	if watch.BuyThreshold == nil && watch.SellThreshold == nil {
		return core.MarketWatch{}, fmt.Errorf("watch spec %q needs at least one threshold", spec)
	}
	return watch, nil
}

func parseThreshold(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("parse threshold: %w", err)
	}
	if value <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}
	return &value, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchListCmd)
	watchListCmd.Flags().StringVarP(&watchListFormat, "format", "f", "table", "output format (table, json)")
}
