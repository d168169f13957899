package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop [task-id | title]",
	Short: "Stop a task and mark it done",
	Long:  `Close the task's open session, if any, and mark the task done. Stopping a finished task again changes nothing.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveTask(ctx, args)
		if err != nil {
			return err
		}
		task, err := app.tracker.StopTask(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to stop task: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		fmt.Fprintf(out, "Done: %s\n", task.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
