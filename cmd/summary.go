package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

var summaryDays int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show focus time per day",
	Long:  `Show worked and paused focus time for each of the last N local days, oldest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		days, err := app.tracker.DailySummary(ctx, summaryDays)
		if err != nil {
			return fmt.Errorf("failed to summarize days: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]interface{}{"days": days})
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s\n\n", titleStyle.Render(fmt.Sprintf("Last %d days", len(days))))
		renderDayBars(out, days)
		fmt.Fprintln(out)
		return nil
	},
}

// renderDayBars draws one bar per day scaled to the busiest day.
func renderDayBars(out io.Writer, days []domain.DaySummary) {
	const width = 30

	var peak, total int64
	for _, d := range days {
		total += d.WorkedSec
		if d.WorkedSec > peak {
			peak = d.WorkedSec
		}
	}

	for _, d := range days {
		label := d.Day
		if t, err := time.Parse("2006-01-02", d.Day); err == nil {
			label = t.Format("Mon Jan 02")
		}
		n := 0
		if peak > 0 {
			n = int(d.WorkedSec * width / peak)
		}
		bar := valueStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", width-n))
		fmt.Fprintf(out, "  %-10s %s %s\n", label, bar, formatSeconds(d.WorkedSec))
	}
	fmt.Fprintf(out, "\n  Total  %s\n", valueStyle.Render(formatSeconds(total)))
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryDays, "days", "d", 7, "Number of days including today")
	rootCmd.AddCommand(summaryCmd)
}
