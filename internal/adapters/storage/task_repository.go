package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/tally/internal/domain"
)

// taskRepository implements ports.TaskRepository using SQLite.
type taskRepository struct {
	db dbtx
}

const taskColumns = `
	t.id, t.title, t.description, t.status,
	t.project_id, COALESCE(p.name, ''), t.priority_id, COALESCE(pr.weight, 0),
	t.eta_sec, t.due_at, t.started_at, t.ended_at, t.archived_at,
	t.created_at, t.updated_at`

const taskFrom = `
	FROM tasks t
	LEFT JOIN projects p ON p.id = t.project_id
	LEFT JOIN priorities pr ON pr.id = t.priority_id`

// Create inserts a task with its tag set and assigns its ID.
func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (title, description, status, project_id, priority_id, eta_sec,
			due_at, started_at, ended_at, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		nullInt64(task.ProjectID),
		nullInt64(task.PriorityID),
		nullInt64(task.EtaSec),
		nullMillis(task.DueAt),
		nullMillis(task.StartedAt),
		nullMillis(task.EndedAt),
		nullMillis(task.ArchivedAt),
		toMillis(task.CreatedAt),
		toMillis(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	task.ID = id

	task.Tags = domain.NormalizeTags(task.Tags)
	return r.replaceTags(ctx, task.ID, task.Tags)
}

// Update writes every field of an existing task and replaces its tags.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, project_id = ?, priority_id = ?,
			eta_sec = ?, due_at = ?, started_at = ?, ended_at = ?, archived_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		nullInt64(task.ProjectID),
		nullInt64(task.PriorityID),
		nullInt64(task.EtaSec),
		nullMillis(task.DueAt),
		nullMillis(task.StartedAt),
		nullMillis(task.EndedAt),
		nullMillis(task.ArchivedAt),
		toMillis(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrTaskNotFound
	}

	task.Tags = domain.NormalizeTags(task.Tags)
	return r.replaceTags(ctx, task.ID, task.Tags)
}

// replaceTags swaps the task's tag links for tags, creating missing tags.
func (r *taskRepository) replaceTags(ctx context.Context, taskID int64, tags []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("failed to clear task tags: %w", err)
	}

	for _, tag := range tags {
		key := foldKey(tag)
		if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name, name_key) VALUES (?, ?)`, tag, key); err != nil {
			return fmt.Errorf("failed to save tag %q: %w", tag, err)
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO task_tags (task_id, tag_id)
			SELECT ?, id FROM tags WHERE name_key = ?
		`, taskID, key)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", tag, err)
		}
	}
	return nil
}

// FindByID retrieves a task by its identifier.
func (r *taskRepository) FindByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.id = ?`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := r.loadTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task from storage.
func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// List returns one page of tasks matching q and the total match count.
func (r *taskRepository) List(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	where, args := buildTaskWhere(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + taskFrom + where + taskOrderBy(q) + ` LIMIT ? OFFSET ?`
	tasks, err := r.query(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, err
	}

	return &domain.TaskPage{Items: tasks, Total: total}, nil
}

// Match returns every task matching q's filters, ignoring paging.
func (r *taskRepository) Match(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	where, args := buildTaskWhere(q)
	query := `SELECT ` + taskColumns + taskFrom + where + ` ORDER BY t.id`
	return r.query(ctx, query, args...)
}

// FindByTitle does a fuzzy search for tasks by title.
func (r *taskRepository) FindByTitle(ctx context.Context, query string, limit int) ([]*domain.Task, error) {
	tasks, err := r.query(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.status != 'archived' ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for fuzzy search: %w", err)
	}

	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}

	var result []*domain.Task
	for _, match := range fuzzy.Find(query, titles) {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, tasks[match.Index])
	}
	return result, nil
}

// query runs a task select, closes the rows and then attaches tags.
func (r *taskRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// loadTags fills Tags on each task, in chunks to stay under SQLite's
// parameter limit.
func (r *taskRepository) loadTags(ctx context.Context, tasks []*domain.Task) error {
	const chunk = 500

	byID := make(map[int64]*domain.Task, len(tasks))
	for _, t := range tasks {
		t.Tags = []string{}
		byID[t.ID] = t
	}

	for startIdx := 0; startIdx < len(tasks); startIdx += chunk {
		end := startIdx + chunk
		if end > len(tasks) {
			end = len(tasks)
		}
		ids := make([]interface{}, 0, end-startIdx)
		for _, t := range tasks[startIdx:end] {
			ids = append(ids, t.ID)
		}

		query := `
			SELECT tt.task_id, g.name
			FROM task_tags tt
			JOIN tags g ON g.id = tt.tag_id
			WHERE tt.task_id IN (` + placeholders(len(ids)) + `)
			ORDER BY g.name_key
		`
		rows, err := r.db.QueryContext(ctx, query, ids...)
		if err != nil {
			return fmt.Errorf("failed to query task tags: %w", err)
		}
		for rows.Next() {
			var taskID int64
			var name string
			if err := rows.Scan(&taskID, &name); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan task tag: %w", err)
			}
			if t, ok := byID[taskID]; ok {
				t.Tags = append(t.Tags, name)
			}
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return fmt.Errorf("failed to iterate task tags: %w", err)
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	var projectID, priorityID, etaSec sql.NullInt64
	var dueAt, startedAt, endedAt, archivedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&projectID,
		&task.ProjectName,
		&priorityID,
		&task.PriorityWeight,
		&etaSec,
		&dueAt,
		&startedAt,
		&endedAt,
		&archivedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.ProjectID = fromNullInt64(projectID)
	task.PriorityID = fromNullInt64(priorityID)
	task.EtaSec = fromNullInt64(etaSec)
	task.DueAt = fromNullMillis(dueAt)
	task.StartedAt = fromNullMillis(startedAt)
	task.EndedAt = fromNullMillis(endedAt)
	task.ArchivedAt = fromNullMillis(archivedAt)
	task.CreatedAt = fromMillis(createdAt)
	task.UpdatedAt = fromMillis(updatedAt)
	task.Tags = []string{}

	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// buildTaskWhere turns the query filters into a WHERE clause over alias t.
// Row, count and report totals all go through here so they share predicates.
func buildTaskWhere(q domain.TaskQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if len(q.Statuses) > 0 {
		conds = append(conds, `t.status IN (`+placeholders(len(q.Statuses))+`)`)
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	if q.ProjectID != nil {
		conds = append(conds, `t.project_id = ?`)
		args = append(args, *q.ProjectID)
	}
	if q.NoProject {
		conds = append(conds, `t.project_id IS NULL`)
	}
	if q.PriorityID != nil {
		conds = append(conds, `t.priority_id = ?`)
		args = append(args, *q.PriorityID)
	}
	if q.Search != "" {
		like := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		conds = append(conds, `(`+foldFunc+`(t.title) LIKE ? ESCAPE '\' OR `+foldFunc+`(t.description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if len(q.Tags) > 0 {
		sub := `SELECT COUNT(DISTINCT g.id) FROM task_tags tt JOIN tags g ON g.id = tt.tag_id
			WHERE tt.task_id = t.id AND g.name_key IN (` + placeholders(len(q.Tags)) + `)`
		if q.TagMode == domain.TagModeAll {
			conds = append(conds, `(`+sub+`) = ?`)
		} else {
			conds = append(conds, `(`+sub+`) > 0`)
		}
		for _, tag := range q.Tags {
			args = append(args, foldKey(tag))
		}
		if q.TagMode == domain.TagModeAll {
			args = append(args, len(q.Tags))
		}
	}
	if q.DueFrom != nil {
		conds = append(conds, `t.due_at >= ?`)
		args = append(args, toMillis(*q.DueFrom))
	}
	if q.DueTo != nil {
		conds = append(conds, `t.due_at <= ?`)
		args = append(args, toMillis(*q.DueTo))
	}
	if q.CreatedFrom != nil {
		conds = append(conds, `t.created_at >= ?`)
		args = append(args, toMillis(*q.CreatedFrom))
	}
	if q.CreatedTo != nil {
		conds = append(conds, `t.created_at <= ?`)
		args = append(args, toMillis(*q.CreatedTo))
	}
	if q.HasSessions != nil {
		exists := `EXISTS (SELECT 1 FROM sessions s WHERE s.task_id = t.id)`
		if *q.HasSessions {
			conds = append(conds, exists)
		} else {
			conds = append(conds, `NOT `+exists)
		}
	}
	if q.WindowStart != nil && q.WindowEnd != nil {
		start, end := toMillis(*q.WindowStart), toMillis(*q.WindowEnd)
		conds = append(conds, `(
			EXISTS (SELECT 1 FROM sessions s
				WHERE s.task_id = t.id AND s.kind = 'focus'
				AND s.started_at < ? AND COALESCE(s.ended_at, ?) > ?)
			OR (t.created_at >= ? AND t.created_at < ?)
			OR (t.due_at >= ? AND t.due_at < ?))`)
		args = append(args, end, toMillis(q.Now), start, start, end, start, end)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// taskOrderBy maps the sort key onto columns. NULL dates sort last, and the
// id keeps pages stable.
func taskOrderBy(q domain.TaskQuery) string {
	dir := "ASC"
	if q.SortDir == domain.SortDesc {
		dir = "DESC"
	}

	switch q.SortBy {
	case domain.TaskSortUpdated:
		return fmt.Sprintf(" ORDER BY t.updated_at %s, t.id %s", dir, dir)
	case domain.TaskSortDue, domain.TaskSortStarted, domain.TaskSortEnded:
		col := "t." + string(q.SortBy)
		return fmt.Sprintf(" ORDER BY %s IS NULL, %s %s, t.id %s", col, col, dir, dir)
	case domain.TaskSortTitle:
		return fmt.Sprintf(" ORDER BY "+foldFunc+"(t.title) %s, t.id %s", dir, dir)
	case domain.TaskSortStatus:
		return fmt.Sprintf(" ORDER BY t.status %s, t.id %s", dir, dir)
	case domain.TaskSortPriority:
		return fmt.Sprintf(" ORDER BY COALESCE(pr.weight, 0) %s, t.created_at DESC, t.id DESC", dir)
	default:
		return fmt.Sprintf(" ORDER BY t.created_at %s, t.id %s", dir, dir)
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
