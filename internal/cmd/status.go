package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/output"
)

var (
	statusFormat string
	statusLimit  int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential state, watches and recent audit records",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(statusFormat)
		if err != nil {
			return err
		}

		// Status is read-only and never needs the API key.
		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()

		creds, err := db.ListCredentials(ctx)
		if err != nil {
			return err
		}
		watches, err := db.ListMarketWatch(ctx)
		if err != nil {
			return err
		}
		recent, err := db.RecentActions(ctx, statusLimit)
		if err != nil {
			return err
		}
		last, err := db.GetLastSnapshot(ctx)
		if err != nil {
			return err
		}

		report := &core.StatusReport{
			Watches:       watches,
			RecentActions: recent,
		}
		for _, cred := range creds {
			report.Credentials = append(report.Credentials, core.CredentialStatus{
				ID:         cred.ID,
				Disabled:   cred.Disabled(),
				DisabledAt: cred.DisabledAt,
			})
		}
		if last != nil {
			ts := last.TS
			report.LastSnapshotAt = &ts
		}

		rendered, err := output.NewFormatter(format).FormatStatus(report)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "table", "output format (table, json)")
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 20, "number of recent audit records to show")
}
