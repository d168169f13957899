package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	reportPeriod    string
	reportDate      string
	reportSearch    string
	reportStatus    string
	reportProjectID int64
	reportNoProject bool
	reportTag       string
	reportSort      string
	reportDesc      bool
	reportPage      int
	reportPageSize  int
	reportFormat    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked and paused time per task",
	Long: `List the tasks of a day, week, month, year or all time with the focus time that
falls inside the period, plus totals over every matching task.

Archived tasks are hidden unless --status archived is given. Idle and active
totals are measured for calendar periods.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		q, err := reportQuery(cmd)
		if err != nil {
			return err
		}
		page, err := app.tracker.ReportList(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}

		out := cmd.OutOrStdout()
		format := reportFormat
		if jsonOutput {
			format = "json"
		}
		switch format {
		case "json":
			return printJSON(out, page)
		case "yaml":
			return writeReportYAML(out, page)
		case "csv":
			return writeReportCSV(out, page)
		case "table", "":
			renderReport(out, page)
			return nil
		default:
			return domain.Invalid("format", "must be table, csv, json or yaml, got %q", format)
		}
	},
}

func reportQuery(cmd *cobra.Command) (domain.ReportQuery, error) {
	period, err := domain.ParsePeriod(reportPeriod)
	if err != nil {
		return domain.ReportQuery{}, err
	}
	q := domain.ReportQuery{
		Period: period,
		Filter: domain.ReportFilter{
			Search:    reportSearch,
			NoProject: reportNoProject,
			Tag:       reportTag,
		},
		SortBy:   domain.ReportSortKey(reportSort),
		SortDir:  domain.SortAsc,
		Page:     reportPage,
		PageSize: reportPageSize,
	}
	if reportDesc {
		q.SortDir = domain.SortDesc
	}
	date, err := parseDate("date", reportDate)
	if err != nil {
		return q, err
	}
	if date != nil {
		q.Date = *date
	}
	if reportStatus != "" {
		st, err := domain.ParseTaskStatus(reportStatus)
		if err != nil {
			return q, err
		}
		q.Filter.Status = &st
	}
	if cmd.Flags().Changed("project-id") {
		q.Filter.ProjectID = &reportProjectID
	}
	return q, nil
}

// periodLabel describes the report window in the report zone.
func periodLabel(page *domain.ReportPage) string {
	if page.WindowStart == nil || page.WindowEnd == nil {
		return "All time"
	}
	loc := app.tracker.Location()
	start := page.WindowStart.In(loc)
	last := page.WindowEnd.In(loc).Add(-time.Nanosecond)
	switch page.Period {
	case domain.PeriodDay:
		return start.Format("Monday, Jan 2 2006")
	case domain.PeriodWeek:
		return fmt.Sprintf("Week of %s", start.Format("Jan 2 2006"))
	case domain.PeriodMonth:
		return start.Format("January 2006")
	case domain.PeriodYear:
		return start.Format("2006")
	}
	return fmt.Sprintf("%s - %s", start.Format("2006-01-02"), last.Format("2006-01-02"))
}

func renderReport(w io.Writer, page *domain.ReportPage) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  %s\n\n", titleStyle.Render("Report"), dimStyle.Render(periodLabel(page)))

	if page.TotalCount == 0 {
		fmt.Fprintln(w, "  No tasks in this period.")
		fmt.Fprintln(w)
		return
	}

	rows := make([][]string, 0, len(page.Rows))
	for _, row := range page.Rows {
		due := ""
		if row.Task.DueAt != nil {
			due = row.Task.DueAt.In(app.tracker.Location()).Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.FormatInt(row.Task.ID, 10),
			getStatusIcon(row.Task.Status) + " " + row.Task.Title,
			row.Task.ProjectName,
			due,
			formatSeconds(row.EffectiveSec),
			formatSeconds(row.PausedSec),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
			}
			if col >= 4 {
				return style.Align(lipgloss.Right)
			}
			return style
		}).
		Headers("ID", "Task", "Project", "Due", "Worked", "Paused").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())

	pages := (page.TotalCount + page.PageSize - 1) / page.PageSize
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(fmt.Sprintf("Page %d of %d · %d tasks", page.Page, pages, page.TotalCount)))

	totals := page.Totals
	fmt.Fprintf(w, "  Worked  %s\n", valueStyle.Render(formatSeconds(totals.WorkedSec)))
	fmt.Fprintf(w, "  Paused  %s\n", valueStyle.Render(formatSeconds(totals.PausedSec)))
	if totals.IdleMeasured {
		fmt.Fprintf(w, "  Active  %s\n", valueStyle.Render(formatSeconds(totals.ActiveSec)))
		fmt.Fprintf(w, "  Idle    %s\n", valueStyle.Render(formatSeconds(totals.IdleSec)))
	}
	fmt.Fprintln(w)
}

// reportRecord is the flat export shape of one report row.
type reportRecord struct {
	ID           int64    `yaml:"id"`
	Title        string   `yaml:"title"`
	Status       string   `yaml:"status"`
	Project      string   `yaml:"project,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Due          string   `yaml:"due,omitempty"`
	EffectiveSec int64    `yaml:"effective_sec"`
	PausedSec    int64    `yaml:"paused_sec"`
	TotalSec     int64    `yaml:"total_sec"`
}

type reportExport struct {
	Period      string              `yaml:"period"`
	WindowStart string              `yaml:"window_start,omitempty"`
	WindowEnd   string              `yaml:"window_end,omitempty"`
	Page        int                 `yaml:"page"`
	PageSize    int                 `yaml:"page_size"`
	TotalCount  int                 `yaml:"total_count"`
	Totals      domain.ReportTotals `yaml:"totals"`
	Rows        []reportRecord      `yaml:"rows"`
}

func toRecords(page *domain.ReportPage) []reportRecord {
	records := make([]reportRecord, 0, len(page.Rows))
	for _, row := range page.Rows {
		rec := reportRecord{
			ID:           row.Task.ID,
			Title:        row.Task.Title,
			Status:       string(row.Task.Status),
			Project:      row.Task.ProjectName,
			Tags:         row.Task.Tags,
			EffectiveSec: row.EffectiveSec,
			PausedSec:    row.PausedSec,
			TotalSec:     row.TotalSec,
		}
		if row.Task.DueAt != nil {
			rec.Due = row.Task.DueAt.UTC().Format(time.RFC3339)
		}
		records = append(records, rec)
	}
	return records
}

func writeReportYAML(w io.Writer, page *domain.ReportPage) error {
	export := reportExport{
		Period:     string(page.Period),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		Totals:     page.Totals,
		Rows:       toRecords(page),
	}
	if page.WindowStart != nil {
		export.WindowStart = page.WindowStart.UTC().Format(time.RFC3339)
	}
	if page.WindowEnd != nil {
		export.WindowEnd = page.WindowEnd.UTC().Format(time.RFC3339)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

func writeReportCSV(w io.Writer, page *domain.ReportPage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "status", "project", "tags", "due", "effective_sec", "paused_sec", "total_sec"}); err != nil {
		return err
	}
	for _, rec := range toRecords(page) {
		if err := cw.Write([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.Title,
			rec.Status,
			rec.Project,
			strings.Join(rec.Tags, ";"),
			rec.Due,
			strconv.FormatInt(rec.EffectiveSec, 10),
			strconv.FormatInt(rec.PausedSec, 10),
			strconv.FormatInt(rec.TotalSec, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	flags := reportCmd.Flags()
	flags.StringVarP(&reportPeriod, "period", "p", "day", "Period: day, week, month, year or all")
	flags.StringVar(&reportDate, "date", "", "A date inside the period, YYYY-MM-DD (default today)")
	flags.StringVarP(&reportSearch, "search", "q", "", "Text in title or description")
	flags.StringVarP(&reportStatus, "status", "s", "", "Only tasks in this status")
	flags.Int64Var(&reportProjectID, "project-id", 0, "Only tasks of this project")
	flags.BoolVar(&reportNoProject, "no-project", false, "Only tasks without a project")
	flags.StringVarP(&reportTag, "tag", "t", "", "Only tasks with this tag")
	flags.StringVar(&reportSort, "sort", "", "Sort by title, status, due_at, project, effective_sec, updated_at or priority")
	flags.BoolVar(&reportDesc, "desc", false, "Sort descending")
	flags.IntVar(&reportPage, "page", 1, "Page number")
	flags.IntVarP(&reportPageSize, "page-size", "n", 0, "Rows per page (default from config, max 100)")
	flags.StringVarP(&reportFormat, "format", "f", "table", "Output format: table, csv, json or yaml")
	rootCmd.AddCommand(reportCmd)
}
