package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

var idleDate string

var activityCmd = &cobra.Command{
	Use:   "activity [active|idle]",
	Short: "Record a change between active and idle time",
	Long: `Record that you became active or went idle. Activity feeds the idle and
active totals of reports; hook it to a screen lock or input monitor.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"active", "idle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var delta int
		switch strings.ToLower(args[0]) {
		case "active", "+1", "1":
			delta = 1
		case "idle", "-1":
			delta = -1
		default:
			return domain.Invalid("delta", "must be active or idle, got %q", args[0])
		}

		if err := app.tracker.RecordActivity(ctx, delta); err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]interface{}{"delta": delta})
		}
		fmt.Fprintf(out, "Recorded: %s\n", args[0])
		return nil
	},
}

var clockCmd = &cobra.Command{
	Use:       "clock [in|out]",
	Short:     "Clock in or out",
	Long:      `Record a manual clock marker. With idle_mode = "clocked" these markers bound the working day.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"in", "out"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		kind, err := domain.ParseClockKind(args[0])
		if err != nil {
			return err
		}
		if err := app.tracker.RecordClock(ctx, kind); err != nil {
			return fmt.Errorf("failed to record clock: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]interface{}{"clock": kind})
		}
		fmt.Fprintf(out, "Clocked %s\n", kind)
		return nil
	},
}

var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Show idle and active time of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		date, err := parseDate("date", idleDate)
		if err != nil {
			return err
		}
		var day time.Time
		if date != nil {
			day = *date
		}
		report, err := app.tracker.IdleDay(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to measure idle time: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, report)
		}
		if report.WindowStart == nil {
			fmt.Fprintf(out, "Nothing to measure (%s mode).\n", report.Mode)
			return nil
		}
		loc := app.tracker.Location()
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Window"), dimStyle.Render(fmt.Sprintf("%s - %s (%s)",
			report.WindowStart.In(loc).Format("2006-01-02 15:04"), report.WindowEnd.In(loc).Format("15:04"), report.Mode)))
		fmt.Fprintf(out, "  Active  %s\n", valueStyle.Render(formatSeconds(report.ActiveSec)))
		fmt.Fprintf(out, "  Idle    %s\n", valueStyle.Render(formatSeconds(report.IdleSec)))
		return nil
	},
}

func init() {
	idleCmd.Flags().StringVar(&idleDate, "date", "", "The day, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(activityCmd, clockCmd, idleCmd)
}
