package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the open focus session, if any, with its worked and paused time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		current, err := app.tracker.Current(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current session: %w", err)
		}

		if jsonOutput {
			if current == nil {
				return printJSON(out, map[string]interface{}{"state": domain.LedgerIdle, "session": nil})
			}
			return printJSON(out, current)
		}

		if current == nil {
			fmt.Fprintln(out, "No task is running.")
			return nil
		}

		state := valueStyle.Render(string(current.State))
		if current.State == domain.LedgerPaused {
			state = warnStyle.Render(string(current.State))
		}
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render(current.Task.Title), dimStyle.Render(fmt.Sprintf("#%d", current.Task.ID)))
		fmt.Fprintf(out, "  State:   %s\n", state)
		fmt.Fprintf(out, "  Started: %s\n", current.Session.StartedAt.In(app.tracker.Location()).Format("2006-01-02 15:04"))
		fmt.Fprintf(out, "  Worked:  %s\n", timecalc.FormatHHMMSS(current.EffectiveSec))
		fmt.Fprintf(out, "  Paused:  %s\n", timecalc.FormatHHMMSS(current.PausedSec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
