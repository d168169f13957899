package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Long:  `Delete a task with its sessions by ID. Use with caution - this cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		taskID, err := parseID("task_id", args[0])
		if err != nil {
			return err
		}

		// Get task info first for confirmation
		task, err := app.tracker.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}

		// Confirm deletion
		if !jsonOutput && !deleteYes {
			fmt.Fprintf(out, "Are you sure you want to delete task '%s' (%d)? [y/N]: ", task.Title, task.ID)
			confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(confirm), "y") {
				fmt.Fprintln(out, "Deletion cancelled.")
				return nil
			}
		}

		if err := app.tracker.DeleteTask(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if jsonOutput {
			return printJSON(out, map[string]interface{}{"deleted": true, "task_id": taskID})
		}
		fmt.Fprintf(out, "Task '%s' deleted.\n", task.Title)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
	rootCmd.AddCommand(deleteCmd)
}
