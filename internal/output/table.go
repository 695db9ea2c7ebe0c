package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tornwatch/tornwatch/internal/core"
)

// TableFormatter renders reports as ASCII tables.
type TableFormatter struct{}

// FormatCycle renders recommendations and alerts as tables.
func (f *TableFormatter) FormatCycle(report *core.CycleReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var sections []string

	if len(report.Recommendations) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Type", "Recommendation", "Detail"})
		for _, rec := range report.Recommendations {
			t.AppendRow(table.Row{string(rec.Type), rec.Message, recommendationDetail(rec)})
		}
		sections = append(sections, t.Render())
	}

	if len(report.Alerts) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Alert", "Item", "Price", "Threshold"})
		for _, alert := range report.Alerts {
			t.AppendRow(table.Row{
				string(alert.Kind),
				alert.ItemID,
				fmt.Sprintf("%.0f", alert.Price),
				fmt.Sprintf("%.0f", alert.Threshold),
			})
		}
		sections = append(sections, t.Render())
	}

	if len(sections) == 0 {
		return "No recommendations or alerts this cycle.", nil
	}
	return strings.Join(sections, "\n\n"), nil
}

// FormatStatus renders credentials, watches and the recent audit trail.
func (f *TableFormatter) FormatStatus(report *core.StatusReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var sections []string

	if len(report.Credentials) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Credential", "State", "Disabled At"})
		for _, cred := range report.Credentials {
			t.AppendRow(table.Row{cred.ID, credentialState(cred), formatOptionalTime(cred.DisabledAt)})
		}
		sections = append(sections, t.Render())
	}

	if len(report.Watches) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Item", "Buy At", "Sell At", "Last Price"})
		for _, w := range report.Watches {
			t.AppendRow(table.Row{
				w.ItemID,
				formatOptionalPrice(w.BuyThreshold),
				formatOptionalPrice(w.SellThreshold),
				formatOptionalPrice(w.LastSeenPrice),
			})
		}
		sections = append(sections, t.Render())
	}

	if len(report.RecentActions) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Time", "Action", "Status", "Attempts", "Detail"})
		for _, rec := range report.RecentActions {
			t.AppendRow(table.Row{
				rec.Timestamp.Format(time.RFC3339),
				rec.ActionType,
				string(rec.Result.Status),
				rec.Result.Attempts,
				rec.Result.Detail,
			})
		}
		sections = append(sections, t.Render())
	}

	if report.LastSnapshotAt != nil {
		sections = append(sections, fmt.Sprintf("Last snapshot: %s", report.LastSnapshotAt.Format(time.RFC3339)))
	}

	if len(sections) == 0 {
		return "No activity recorded yet.", nil
	}
	return strings.Join(sections, "\n\n"), nil
}

func recommendationDetail(rec core.Recommendation) string {
	switch rec.Type {
	case core.RecommendGym:
		return fmt.Sprintf("slot %d, %d points", rec.Slot, rec.Points)
	case core.RecommendCrime:
		if rec.Crime != nil {
			return fmt.Sprintf("%s (%d nerve, %.2f cash/nerve)", rec.Crime.Name, rec.Crime.Nerve, rec.Crime.CashPerNerve)
		}
	}
	return ""
}

func credentialState(cred core.CredentialStatus) string {
	if cred.Disabled {
		return "disabled"
	}
	return "active"
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func formatOptionalPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}
