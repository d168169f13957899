package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

var (
	listStatuses  []string
	listProjectID int64
	listNoProject bool
	listPriority  int64
	listSearch    string
	listTags      []string
	listAllTags   bool
	listDueFrom   string
	listDueTo     string
	listSessions  bool
	listSort      string
	listDesc      bool
	listLimit     int
	listOffset    int
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List tasks with optional filters. Newest tasks come first unless --sort is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		q, err := listQuery(cmd)
		if err != nil {
			return err
		}
		page, err := app.tracker.ListTasks(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, page)
		}

		if len(page.Items) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		fmt.Fprintf(out, "%s\n\n", titleStyle.Render(fmt.Sprintf("Tasks (%d of %d)", len(page.Items), page.Total)))
		for _, task := range page.Items {
			fmt.Fprintln(out, taskLine(task))
		}
		return nil
	},
}

func listQuery(cmd *cobra.Command) (domain.TaskQuery, error) {
	flags := cmd.Flags()
	q := domain.TaskQuery{
		NoProject: listNoProject,
		Search:    listSearch,
		Tags:      listTags,
		SortBy:    domain.TaskSortKey(listSort),
		Limit:     listLimit,
		Offset:    listOffset,
	}
	for _, raw := range listStatuses {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return q, err
		}
		q.Statuses = append(q.Statuses, st)
	}
	if flags.Changed("project-id") {
		q.ProjectID = &listProjectID
	}
	if flags.Changed("priority") {
		q.PriorityID = &listPriority
	}
	if listAllTags {
		q.TagMode = domain.TagModeAll
	}
	var err error
	if q.DueFrom, err = parseDate("due_from", listDueFrom); err != nil {
		return q, err
	}
	if q.DueTo, err = parseDate("due_to", listDueTo); err != nil {
		return q, err
	}
	if flags.Changed("has-sessions") {
		q.HasSessions = &listSessions
	}
	if flags.Changed("desc") {
		q.SortDir = domain.SortAsc
		if listDesc {
			q.SortDir = domain.SortDesc
		}
	}
	return q, nil
}

func init() {
	flags := listCmd.Flags()
	flags.StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (todo, in progress, done, archived); repeatable")
	flags.Int64Var(&listProjectID, "project-id", 0, "Filter by project ID")
	flags.BoolVar(&listNoProject, "no-project", false, "Only tasks without a project")
	flags.Int64Var(&listPriority, "priority", 0, "Filter by priority ID")
	flags.StringVarP(&listSearch, "search", "q", "", "Text in title or description")
	flags.StringArrayVarP(&listTags, "tag", "t", nil, "Filter by tag; repeatable")
	flags.BoolVar(&listAllTags, "all-tags", false, "Require every --tag instead of any")
	flags.StringVar(&listDueFrom, "due-from", "", "Due on or after this date")
	flags.StringVar(&listDueTo, "due-to", "", "Due before this date")
	flags.BoolVar(&listSessions, "has-sessions", false, "Only tasks with (true) or without (false) focus sessions")
	flags.StringVar(&listSort, "sort", "", "Sort by created_at, updated_at, due_at, title, status, priority_weight, started_at or ended_at")
	flags.BoolVar(&listDesc, "desc", false, "Sort descending")
	flags.IntVarP(&listLimit, "limit", "n", 0, "Page size (default 50, max 500)")
	flags.IntVar(&listOffset, "offset", 0, "Rows to skip")
	rootCmd.AddCommand(listCmd)
}
