package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

var statusValues = []string{
	string(domain.StatusTodo),
	string(domain.StatusInProgress),
	string(domain.StatusDone),
	string(domain.StatusArchived),
}

// taskFieldOptions are the properties shared by create_task and update_task.
func taskFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("description", mcp.Description("Free-form description")),
		mcp.WithString("status", mcp.Description("todo, done or archived; in progress is set by start_task"), mcp.Enum(statusValues...)),
		mcp.WithNumber("project_id", mcp.Description("ID of an existing project")),
		mcp.WithString("project", mcp.Description("Project name, created if missing")),
		mcp.WithNumber("priority_id", mcp.Description("Priority ID, see list_priorities")),
		mcp.WithNumber("eta_sec", mcp.Description("Estimated effort in seconds")),
		mcp.WithString("due_at", mcp.Description("Due date as YYYY-MM-DD or RFC 3339")),
		mcp.WithArray("tags", mcp.Description("Tag names; replaces the task's tags"), mcp.WithStringItems()),
	}
}

func (s *Server) registerTaskTools() {
	createOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Create a new task"),
		mcp.WithString("title", mcp.Required(), mcp.Description("The title of the task")),
	}, taskFieldOptions()...)
	s.server.AddTool(mcp.NewTool("create_task", createOpts...), s.handleCreateTask)

	updateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Update fields of a task; omitted fields are left unchanged"),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithBoolean("clear_project", mcp.Description("Remove the task from its project")),
		mcp.WithBoolean("clear_due", mcp.Description("Remove the due date")),
	}, taskFieldOptions()...)
	s.server.AddTool(mcp.NewTool("update_task", updateOpts...), s.handleUpdateTask)

	s.server.AddTool(
		mcp.NewTool(
			"delete_task",
			mcp.WithDescription("Delete a task with its sessions and tags"),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handleDeleteTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_task",
			mcp.WithDescription("Get one task"),
			mcp.WithNumber("task_id", mcp.Required(), mcp.Description("The ID of the task")),
		),
		s.handleGetTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_tasks",
			mcp.WithDescription("List tasks with filters, ordering and paging"),
			mcp.WithArray("status", mcp.Description("Keep tasks in any of these statuses"), mcp.WithStringItems()),
			mcp.WithNumber("project_id", mcp.Description("Keep tasks of this project")),
			mcp.WithBoolean("no_project", mcp.Description("Keep tasks without a project")),
			mcp.WithNumber("priority_id", mcp.Description("Keep tasks with this priority")),
			mcp.WithString("search", mcp.Description("Substring of title or description")),
			mcp.WithArray("tags", mcp.Description("Tag filter"), mcp.WithStringItems()),
			mcp.WithString("tag_mode", mcp.Description("Match any or all tags"), mcp.Enum(string(domain.TagModeAny), string(domain.TagModeAll))),
			mcp.WithString("due_from", mcp.Description("Due on or after this date")),
			mcp.WithString("due_to", mcp.Description("Due before this date")),
			mcp.WithBoolean("has_sessions", mcp.Description("Keep tasks with or without focus sessions")),
			mcp.WithString("sort", mcp.Description("Sort key"), mcp.Enum(
				string(domain.TaskSortCreated), string(domain.TaskSortUpdated), string(domain.TaskSortDue),
				string(domain.TaskSortTitle), string(domain.TaskSortStatus), string(domain.TaskSortPriority),
				string(domain.TaskSortStarted), string(domain.TaskSortEnded),
			)),
			mcp.WithString("order", mcp.Description("asc or desc"), mcp.Enum(string(domain.SortAsc), string(domain.SortDesc))),
			mcp.WithNumber("limit", mcp.Description("Page size, at most 500")),
			mcp.WithNumber("offset", mcp.Description("Rows to skip")),
		),
		s.handleListTasks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"find_tasks",
			mcp.WithDescription("Fuzzy-find tasks by title"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Characters to match in order")),
			mcp.WithNumber("limit", mcp.Description("Maximum matches (default 10)")),
		),
		s.handleFindTasks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_tags",
			mcp.WithDescription("List popular tags, or the tags starting with a prefix"),
			mcp.WithString("prefix", mcp.Description("Case-insensitive name prefix")),
			mcp.WithNumber("limit", mcp.Description("Maximum tags (default 20)")),
		),
		s.handleListTags,
	)

	s.server.AddTool(
		mcp.NewTool("list_projects", mcp.WithDescription("List all projects")),
		s.handleListProjects,
	)

	s.server.AddTool(
		mcp.NewTool("list_priorities", mcp.WithDescription("List the priority levels")),
		s.handleListPriorities,
	)
}

// taskFields reads the shared create/update properties.
func (s *Server) taskFields(request mcp.CallToolRequest) (ports.TaskFields, error) {
	var fields ports.TaskFields
	var err error

	fields.Title = optionalString(request, "title")
	fields.Description = optionalString(request, "description")
	if status := optionalString(request, "status"); status != nil {
		st := domain.TaskStatus(*status)
		fields.Status = &st
	}
	if fields.ProjectID, err = optionalID(request, "project_id"); err != nil {
		return fields, err
	}
	if name := optionalString(request, "project"); name != nil && strings.TrimSpace(*name) != "" {
		fields.ProjectName = name
	}
	if fields.PriorityID, err = optionalID(request, "priority_id"); err != nil {
		return fields, err
	}
	if eta, ok, err := optionalInt(request, "eta_sec"); err != nil {
		return fields, err
	} else if ok {
		fields.EtaSec = &eta
	}
	if fields.DueAt, err = optionalDate(request, "due_at", s.tracker.Location()); err != nil {
		return fields, err
	}
	if tags, ok := stringList(request, "tags"); ok {
		fields.Tags = tags
		fields.SetTags = true
	}
	fields.ClearProject = request.GetBool("clear_project", false)
	fields.ClearDue = request.GetBool("clear_due", false)
	return fields, nil
}

// handleCreateTask handles the create_task tool.
func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := request.RequireString("title"); err != nil {
		return mcp.NewToolResultError("title is required: " + err.Error()), nil
	}
	fields, err := s.taskFields(request)
	if err != nil {
		return s.errorResult("create task", err), nil
	}

	task, err := s.tracker.CreateTask(ctx, fields)
	if err != nil {
		return s.errorResult("create task", err), nil
	}
	return jsonResult(task)
}

// handleUpdateTask handles the update_task tool.
func (s *Server) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "task_id")
	if err != nil {
		return s.errorResult("update task", err), nil
	}
	fields, err := s.taskFields(request)
	if err != nil {
		return s.errorResult("update task", err), nil
	}

	task, err := s.tracker.UpdateTask(ctx, id, fields)
	if err != nil {
		return s.errorResult("update task", err), nil
	}
	return jsonResult(task)
}

// handleDeleteTask handles the delete_task tool.
func (s *Server) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "task_id")
	if err != nil {
		return s.errorResult("delete task", err), nil
	}
	if err := s.tracker.DeleteTask(ctx, id); err != nil {
		return s.errorResult("delete task", err), nil
	}
	return jsonResult(map[string]interface{}{"deleted": id})
}

// handleGetTask handles the get_task tool.
func (s *Server) handleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "task_id")
	if err != nil {
		return s.errorResult("get task", err), nil
	}
	task, err := s.tracker.GetTask(ctx, id)
	if err != nil {
		return s.errorResult("get task", err), nil
	}
	return jsonResult(task)
}

// handleListTasks handles the list_tasks tool.
func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := s.taskQuery(request)
	if err != nil {
		return s.errorResult("list tasks", err), nil
	}
	page, err := s.tracker.ListTasks(ctx, q)
	if err != nil {
		return s.errorResult("list tasks", err), nil
	}
	return jsonResult(page)
}

func (s *Server) taskQuery(request mcp.CallToolRequest) (domain.TaskQuery, error) {
	var q domain.TaskQuery
	var err error
	loc := s.tracker.Location()

	if statuses, ok := stringList(request, "status"); ok {
		for _, raw := range statuses {
			st, err := domain.ParseTaskStatus(raw)
			if err != nil {
				return q, err
			}
			q.Statuses = append(q.Statuses, st)
		}
	}
	if q.ProjectID, err = optionalID(request, "project_id"); err != nil {
		return q, err
	}
	q.NoProject = request.GetBool("no_project", false)
	if q.PriorityID, err = optionalID(request, "priority_id"); err != nil {
		return q, err
	}
	q.Search = request.GetString("search", "")
	q.Tags, _ = stringList(request, "tags")
	q.TagMode = domain.TagMode(request.GetString("tag_mode", ""))
	if q.DueFrom, err = optionalDate(request, "due_from", loc); err != nil {
		return q, err
	}
	if q.DueTo, err = optionalDate(request, "due_to", loc); err != nil {
		return q, err
	}
	if _, ok := request.GetArguments()["has_sessions"]; ok {
		has := request.GetBool("has_sessions", false)
		q.HasSessions = &has
	}
	q.SortBy = domain.TaskSortKey(request.GetString("sort", ""))
	if order := request.GetString("order", ""); order != "" {
		q.SortDir = domain.ParseSortDir(order)
	}
	q.Limit = request.GetInt("limit", 0)
	q.Offset = request.GetInt("offset", 0)
	return q, nil
}

// handleFindTasks handles the find_tasks tool.
func (s *Server) handleFindTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required: " + err.Error()), nil
	}
	tasks, err := s.tracker.FindTasks(ctx, query, request.GetInt("limit", 10))
	if err != nil {
		return s.errorResult("find tasks", err), nil
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return jsonResult(map[string]interface{}{
		"tasks":       tasks,
		"total_count": len(tasks),
	})
}

// handleListTags handles the list_tags tool.
func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.tracker.ListTags(ctx, request.GetString("prefix", ""), request.GetInt("limit", 20))
	if err != nil {
		return s.errorResult("list tags", err), nil
	}
	if tags == nil {
		tags = []domain.TagCount{}
	}
	return jsonResult(map[string]interface{}{"tags": tags})
}

// handleListProjects handles the list_projects tool.
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.tracker.ListProjects(ctx)
	if err != nil {
		return s.errorResult("list projects", err), nil
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return jsonResult(map[string]interface{}{"projects": projects})
}

// handleListPriorities handles the list_priorities tool.
func (s *Server) handleListPriorities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	priorities, err := s.tracker.ListPriorities(ctx)
	if err != nil {
		return s.errorResult("list priorities", err), nil
	}
	return jsonResult(map[string]interface{}{"priorities": priorities})
}
