package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xvierd/tally/internal/domain"
)

func (s *Server) registerReportTools() {
	s.server.AddTool(
		mcp.NewTool(
			"report",
			mcp.WithDescription("Tasks with worked and paused time for a day, week, month, year or all time, plus totals over the whole filtered set"),
			mcp.WithString("period", mcp.Description("Reporting period (default day)"), mcp.Enum(
				string(domain.PeriodDay), string(domain.PeriodWeek), string(domain.PeriodMonth),
				string(domain.PeriodYear), string(domain.PeriodAll),
			)),
			mcp.WithString("date", mcp.Description("A date inside the period, YYYY-MM-DD (default today)")),
			mcp.WithString("search", mcp.Description("Substring of title or description")),
			mcp.WithString("status", mcp.Description("Keep tasks in this status; archived tasks are hidden otherwise"), mcp.Enum(statusValues...)),
			mcp.WithNumber("project_id", mcp.Description("Keep tasks of this project")),
			mcp.WithBoolean("no_project", mcp.Description("Keep tasks without a project")),
			mcp.WithString("tag", mcp.Description("Keep tasks with this tag")),
			mcp.WithString("sort", mcp.Description("Sort key (default updated_at)"), mcp.Enum(
				string(domain.ReportSortTitle), string(domain.ReportSortStatus), string(domain.ReportSortDue),
				string(domain.ReportSortProject), string(domain.ReportSortEffective),
				string(domain.ReportSortUpdated), string(domain.ReportSortPriority),
			)),
			mcp.WithString("order", mcp.Description("asc or desc"), mcp.Enum(string(domain.SortAsc), string(domain.SortDesc))),
			mcp.WithNumber("page", mcp.Description("1-based page number")),
			mcp.WithNumber("page_size", mcp.Description("Rows per page, at most 100")),
		),
		s.handleReport,
	)

	s.server.AddTool(
		mcp.NewTool(
			"daily_summary",
			mcp.WithDescription("Focus time per local day for the last N days, oldest first"),
			mcp.WithNumber("days", mcp.Description("Number of days including today (default 7)")),
		),
		s.handleDailySummary,
	)

	s.server.AddTool(
		mcp.NewTool(
			"idle_day",
			mcp.WithDescription("Idle and active time of one local day under the configured idle policy"),
			mcp.WithString("date", mcp.Description("The day, YYYY-MM-DD (default today)")),
		),
		s.handleIdleDay,
	)
}

// handleReport handles the report tool.
func (s *Server) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := s.reportQuery(request)
	if err != nil {
		return s.errorResult("build report", err), nil
	}
	page, err := s.tracker.ReportList(ctx, q)
	if err != nil {
		return s.errorResult("build report", err), nil
	}
	return jsonResult(page)
}

func (s *Server) reportQuery(request mcp.CallToolRequest) (domain.ReportQuery, error) {
	var q domain.ReportQuery
	period, err := domain.ParsePeriod(request.GetString("period", ""))
	if err != nil {
		return q, err
	}
	q.Period = period

	date, err := optionalDate(request, "date", s.tracker.Location())
	if err != nil {
		return q, err
	}
	if date != nil {
		q.Date = *date
	}

	q.Filter.Search = request.GetString("search", "")
	if raw := request.GetString("status", ""); raw != "" {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return q, err
		}
		q.Filter.Status = &st
	}
	if q.Filter.ProjectID, err = optionalID(request, "project_id"); err != nil {
		return q, err
	}
	q.Filter.NoProject = request.GetBool("no_project", false)
	q.Filter.Tag = request.GetString("tag", "")

	q.SortBy = domain.ReportSortKey(request.GetString("sort", ""))
	q.SortDir = domain.ParseSortDir(request.GetString("order", ""))
	q.Page = request.GetInt("page", 1)
	q.PageSize = request.GetInt("page_size", 0)
	return q, nil
}

// handleDailySummary handles the daily_summary tool.
func (s *Server) handleDailySummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := s.tracker.DailySummary(ctx, request.GetInt("days", 0))
	if err != nil {
		return s.errorResult("summarize days", err), nil
	}
	return jsonResult(map[string]interface{}{"days": days})
}

// handleIdleDay handles the idle_day tool.
func (s *Server) handleIdleDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := optionalDate(request, "date", s.tracker.Location())
	if err != nil {
		return s.errorResult("measure idle time", err), nil
	}
	var day time.Time
	if date != nil {
		day = *date
	}
	report, err := s.tracker.IdleDay(ctx, day)
	if err != nil {
		return s.errorResult("measure idle time", err), nil
	}
	return jsonResult(report)
}
