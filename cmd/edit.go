package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var editFlags taskFlags

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task",
	Long: `Change fields of a task. Only the flags given are applied.

Setting the status to done or archived closes the task's open session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID("task_id", args[0])
		if err != nil {
			return err
		}
		fields, err := editFlags.fields(cmd.Flags())
		if err != nil {
			return err
		}

		task, err := app.tracker.UpdateTask(ctx, id, fields)
		if err != nil {
			return fmt.Errorf("failed to edit task: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		fmt.Fprintln(out, taskLine(task))
		return nil
	},
}

func init() {
	editFlags.register(editCmd.Flags(), true)
	rootCmd.AddCommand(editCmd)
}
