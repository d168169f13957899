package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

var startSwitch bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start [task-id | title]",
	Short: "Start or resume focus time on a task",
	Long: `Start focus time on a task, or resume it when it is paused. The task can be
given by ID or by a fuzzy match on its title.

If another task is running, you are asked whether to pause it first; the
paused task is then stopped when this one starts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		id, err := resolveTask(ctx, args)
		if err != nil {
			return err
		}

		task, err := app.tracker.StartTask(ctx, id)
		if errors.Is(err, domain.ErrAnotherTaskRunning) && !jsonOutput {
			current, cerr := app.tracker.Current(ctx)
			if cerr != nil || current == nil {
				return fmt.Errorf("failed to start task: %w", err)
			}
			if !startSwitch {
				fmt.Fprintf(out, "\"%s\" is running (%s). Pause it and start this task? [y/N] ",
					current.Task.Title, formatSeconds(current.EffectiveSec))
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Keeping current task.")
					return nil
				}
			}
			if _, err := app.tracker.PauseTask(ctx, current.Task.ID); err != nil {
				return fmt.Errorf("failed to pause running task: %w", err)
			}
			task, err = app.tracker.StartTask(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to start task: %w", err)
		}

		if jsonOutput {
			return printJSON(out, task)
		}
		fmt.Fprintf(out, "Started: %s (ID: %d)\n", task.Title, task.ID)
		return nil
	},
}

// resolveTask turns an ID argument, or words to fuzzy-match against task
// titles, into a task ID.
func resolveTask(ctx context.Context, args []string) (int64, error) {
	if len(args) == 1 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return id, nil
		}
	}
	query := strings.Join(args, " ")
	matches, err := app.tracker.FindTasks(ctx, query, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to find task: %w", err)
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("no task matches %q", query)
	}
	return matches[0].ID, nil
}

func init() {
	startCmd.Flags().BoolVar(&startSwitch, "switch", false, "Pause the running task without asking")
	rootCmd.AddCommand(startCmd)
}
