package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// taskFlags holds the field flags shared by add and edit.
type taskFlags struct {
	title        string
	description  string
	status       string
	project      string
	projectID    int64
	priority     int64
	eta          time.Duration
	due          string
	tags         []string
	clearProject bool
	clearDue     bool
	clearTags    bool
}

func (f *taskFlags) register(flags *pflag.FlagSet, edit bool) {
	flags.StringVarP(&f.description, "desc", "d", "", "Task description")
	flags.StringVarP(&f.status, "status", "s", "", "Status: todo, done or archived")
	flags.StringVarP(&f.project, "project", "p", "", "Project name (created if missing)")
	flags.Int64Var(&f.projectID, "project-id", 0, "Project ID")
	flags.Int64Var(&f.priority, "priority", 0, "Priority ID (1 low .. 4 urgent)")
	flags.DurationVar(&f.eta, "eta", 0, "Estimated effort, e.g. 1h30m")
	flags.StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	flags.StringArrayVarP(&f.tags, "tags", "t", []string{}, "Tags for the task")
	if edit {
		flags.StringVar(&f.title, "title", "", "New title")
		flags.BoolVar(&f.clearProject, "clear-project", false, "Remove the project")
		flags.BoolVar(&f.clearDue, "clear-due", false, "Remove the due date")
		flags.BoolVar(&f.clearTags, "clear-tags", false, "Remove all tags")
	}
}

// fields builds a partial update from the flags the user actually set.
func (f *taskFlags) fields(flags *pflag.FlagSet) (ports.TaskFields, error) {
	var fields ports.TaskFields
	if flags.Changed("title") {
		fields.Title = &f.title
	}
	if flags.Changed("desc") {
		fields.Description = &f.description
	}
	if flags.Changed("status") {
		st, err := domain.ParseTaskStatus(f.status)
		if err != nil {
			return fields, err
		}
		fields.Status = &st
	}
	if flags.Changed("project") {
		fields.ProjectName = &f.project
	}
	if flags.Changed("project-id") {
		fields.ProjectID = &f.projectID
	}
	if flags.Changed("priority") {
		fields.PriorityID = &f.priority
	}
	if flags.Changed("eta") {
		sec := int64(f.eta / time.Second)
		fields.EtaSec = &sec
	}
	if flags.Changed("due") {
		due, err := parseDate("due", f.due)
		if err != nil {
			return fields, err
		}
		fields.DueAt = due
	}
	if flags.Changed("tags") {
		fields.Tags = f.tags
		fields.SetTags = true
	}
	fields.ClearProject = f.clearProject
	fields.ClearDue = f.clearDue
	if f.clearTags {
		fields.Tags = nil
		fields.SetTags = true
	}
	return fields, nil
}

var addFlags taskFlags

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long:  `Add a new task. Words after the command form the title.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fields, err := addFlags.fields(cmd.Flags())
		if err != nil {
			return err
		}
		title := strings.Join(args, " ")
		fields.Title = &title

		task, err := app.tracker.CreateTask(ctx, fields)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, task)
		}
		fmt.Fprintf(out, "Task added: %s (ID: %d)\n", task.Title, task.ID)
		return nil
	},
}

func init() {
	addFlags.register(addCmd.Flags(), false)
	rootCmd.AddCommand(addCmd)
}
