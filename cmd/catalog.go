package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
)

var (
	tagsPrefix string
	tagsLimit  int
	findLimit  int
)

var findCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Fuzzy-find tasks by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tasks, err := app.tracker.FindTasks(ctx, strings.Join(args, " "), findLimit)
		if err != nil {
			return fmt.Errorf("failed to find tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if tasks == nil {
				tasks = []*domain.Task{}
			}
			return printJSON(out, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No matching tasks.")
			return nil
		}
		for _, task := range tasks {
			fmt.Fprintln(out, taskLine(task))
		}
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Long:  `List the most used tags, or the tags starting with --prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tags, err := app.tracker.ListTags(ctx, tagsPrefix, tagsLimit)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if tags == nil {
				tags = []domain.TagCount{}
			}
			return printJSON(out, map[string]interface{}{"tags": tags})
		}
		if len(tags) == 0 {
			fmt.Fprintln(out, "No tags found.")
			return nil
		}
		for _, tag := range tags {
			fmt.Fprintf(out, "#%-20s %s\n", tag.Name, dimStyle.Render(fmt.Sprintf("%d", tag.Count)))
		}
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		projects, err := app.tracker.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if projects == nil {
				projects = []domain.Project{}
			}
			return printJSON(out, map[string]interface{}{"projects": projects})
		}
		if len(projects) == 0 {
			fmt.Fprintln(out, "No projects yet. Add one with: tally add <title> --project <name>")
			return nil
		}
		for _, p := range projects {
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%3d", p.ID)), p.Name)
		}
		return nil
	},
}

var prioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "List priority levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		priorities, err := app.tracker.ListPriorities(ctx)
		if err != nil {
			return fmt.Errorf("failed to list priorities: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]interface{}{"priorities": priorities})
		}
		for _, p := range priorities {
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("%d", p.ID)), p.Label)
		}
		return nil
	},
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "Maximum matches")
	tagsCmd.Flags().StringVar(&tagsPrefix, "prefix", "", "Only tags starting with this prefix")
	tagsCmd.Flags().IntVarP(&tagsLimit, "limit", "n", 20, "Maximum tags")
	rootCmd.AddCommand(findCmd, tagsCmd, projectsCmd, prioritiesCmd)
}
