package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause [task-id | title]",
	Short: "Pause a running task, or resume a paused one",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveTask(ctx, args)
		if err != nil {
			return err
		}
		task, err := app.tracker.PauseTask(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to pause task: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		current, err := app.tracker.Current(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current session: %w", err)
		}
		switch {
		case current == nil || current.Task.ID != task.ID:
			fmt.Fprintf(out, "Nothing to pause: %s is not running.\n", task.Title)
		case current.State == domain.LedgerPaused:
			fmt.Fprintf(out, "Paused: %s\n", task.Title)
		default:
			fmt.Fprintf(out, "Resumed: %s\n", task.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}
