package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tornwatch/tornwatch/internal/output"
)

var onceFormat string

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single decision cycle and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(onceFormat)
		if err != nil {
			return err
		}

		app, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.advisor.RunCycle(cmd.Context())
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatCycle(report)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
	onceCmd.Flags().StringVarP(&onceFormat, "format", "f", "table", "output format (table, json)")
	onceCmd.Flags().BoolVar(&dryRun, "dry-run", false, "mark recorded plans as dry-run")
	onceCmd.Flags().BoolVar(&simulateMoney, "simulate-money", false, "overlay a synthetic cash balance on snapshots")
}
