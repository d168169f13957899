package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xvierd/tally/internal/domain"
)

func (s *Server) registerLedgerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"start_task",
			mcp.WithDescription("Start or resume focus time on a task. A paused task elsewhere is stopped; a running one is an error"),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handleStartTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"pause_task",
			mcp.WithDescription("Pause a running task, or resume it if already paused"),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handlePauseTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"stop_task",
			mcp.WithDescription("Close the task's session and mark it done"),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handleStopTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_current_session",
			mcp.WithDescription("Get the open focus session with its running totals"),
		),
		s.handleGetCurrentSession,
	)

	s.server.AddTool(
		mcp.NewTool(
			"record_activity",
			mcp.WithDescription("Record a transition into (+1) or out of (-1) active time"),
			mcp.WithNumber("delta", mcp.Required(), mcp.Description("+1 or -1")),
		),
		s.handleRecordActivity,
	)

	s.server.AddTool(
		mcp.NewTool(
			"clock",
			mcp.WithDescription("Record a manual clock-in or clock-out marker"),
			mcp.WithString("kind", mcp.Required(), mcp.Enum(string(domain.ClockIn), string(domain.ClockOut))),
		),
		s.handleClock,
	)
}

type ledgerAction func(ctx context.Context, id int64) (*domain.Task, error)

func (s *Server) ledgerHandler(action string, fn ledgerAction) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireID(request, "task_id")
		if err != nil {
			return s.errorResult(action, err), nil
		}
		task, err := fn(ctx, id)
		if err != nil {
			return s.errorResult(action, err), nil
		}
		return jsonResult(task)
	}
}

// handleStartTask handles the start_task tool.
func (s *Server) handleStartTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.ledgerHandler("start task", s.tracker.StartTask)(ctx, request)
}

// handlePauseTask handles the pause_task tool.
func (s *Server) handlePauseTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.ledgerHandler("pause task", s.tracker.PauseTask)(ctx, request)
}

// handleStopTask handles the stop_task tool.
func (s *Server) handleStopTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.ledgerHandler("stop task", s.tracker.StopTask)(ctx, request)
}

// handleGetCurrentSession handles the get_current_session tool.
func (s *Server) handleGetCurrentSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := s.tracker.Current(ctx)
	if err != nil {
		return s.errorResult("get current session", err), nil
	}
	if current == nil {
		return jsonResult(map[string]interface{}{
			"state":   domain.LedgerIdle,
			"session": nil,
		})
	}
	return jsonResult(current)
}

// handleRecordActivity handles the record_activity tool.
func (s *Server) handleRecordActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	delta, ok, err := optionalInt(request, "delta")
	if err != nil {
		return s.errorResult("record activity", err), nil
	}
	if !ok {
		return mcp.NewToolResultError("delta is required"), nil
	}
	if err := s.tracker.RecordActivity(ctx, int(delta)); err != nil {
		return s.errorResult("record activity", err), nil
	}
	return jsonResult(map[string]interface{}{"recorded": delta})
}

// handleClock handles the clock tool.
func (s *Server) handleClock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required: " + err.Error()), nil
	}
	kind, err := domain.ParseClockKind(raw)
	if err != nil {
		return s.errorResult("record clock", err), nil
	}
	if err := s.tracker.RecordClock(ctx, kind); err != nil {
		return s.errorResult("record clock", err), nil
	}
	return jsonResult(map[string]interface{}{"clock": kind})
}
