package services

import (
	"context"
	"strings"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// TaskService handles task-related use cases.
type TaskService struct {
	base
}

// NewTaskService creates a new task service.
func NewTaskService(storage ports.Storage) *TaskService {
	return &TaskService{base: newBase(storage)}
}

// CreateTask creates a new task. Only todo, done and archived are accepted
// as an initial status; a task goes in progress through the ledger.
func (s *TaskService) CreateTask(ctx context.Context, fields ports.TaskFields) (*domain.Task, error) {
	log := s.opLogger("create_task")
	now := s.clock()

	if fields.Title == nil {
		return nil, domain.ErrEmptyTaskTitle
	}
	if err := parseStatus(&fields); err != nil {
		return nil, err
	}
	task, err := domain.NewTask(*fields.Title, now)
	if err != nil {
		return nil, err
	}
	if fields.Status != nil && *fields.Status == domain.StatusInProgress {
		return nil, domain.Invalid("status", "a new task cannot start in progress; start it instead")
	}

	err = s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := applyFields(ctx, tx, task, fields, now); err != nil {
			return err
		}
		return tx.Tasks().Create(ctx, task)
	})
	if err != nil {
		return nil, s.fail(log, "create task", err)
	}

	log.Info("task created", "task_id", task.ID)
	return task, nil
}

// UpdateTask applies a partial update. Moving a task out of in progress
// closes its open session; moving it into in progress is the ledger's job.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, fields ports.TaskFields) (*domain.Task, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	if err := parseStatus(&fields); err != nil {
		return nil, err
	}
	log := s.opLogger("update_task", "task_id", id)
	now := s.clock()

	var task *domain.Task
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		t, err := tx.Tasks().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if fields.Status != nil && *fields.Status != t.Status {
			if *fields.Status == domain.StatusInProgress {
				return domain.Invalid("status", "use start to put a task in progress")
			}
			own, err := tx.Sessions().FindOpenFocusByTask(ctx, id)
			if err != nil {
				return err
			}
			if own != nil {
				if err := closeSession(ctx, tx, own, now); err != nil {
					return err
				}
			}
		}

		if err := applyFields(ctx, tx, t, fields, now); err != nil {
			return err
		}
		t.UpdatedAt = now
		if err := tx.Tasks().Update(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "update task", err)
	}

	log.Info("task updated")
	return task, nil
}

// applyFields validates and copies the set fields onto task.
func applyFields(ctx context.Context, tx ports.Repositories, task *domain.Task, fields ports.TaskFields, now time.Time) error {
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return domain.ErrEmptyTaskTitle
		}
		task.Title = title
	}
	if fields.Description != nil {
		task.Description = strings.TrimSpace(*fields.Description)
	}
	if fields.Status != nil {
		task.SetStatus(*fields.Status, now)
	}

	switch {
	case fields.ClearProject:
		task.ProjectID = nil
		task.ProjectName = ""
	case fields.ProjectID != nil:
		if err := domain.ValidateID(*fields.ProjectID); err != nil {
			return domain.Invalid("project_id", "must be a positive integer")
		}
		p, err := tx.Catalog().FindProject(ctx, *fields.ProjectID)
		if err != nil {
			return err
		}
		task.ProjectID = &p.ID
		task.ProjectName = p.Name
	case fields.ProjectName != nil:
		p, err := tx.Catalog().EnsureProject(ctx, *fields.ProjectName)
		if err != nil {
			return err
		}
		task.ProjectID = &p.ID
		task.ProjectName = p.Name
	}

	if fields.PriorityID != nil {
		weight, err := priorityWeight(ctx, tx, *fields.PriorityID)
		if err != nil {
			return err
		}
		task.PriorityID = fields.PriorityID
		task.PriorityWeight = weight
	}
	if fields.EtaSec != nil {
		if *fields.EtaSec < 0 {
			return domain.Invalid("eta_sec", "cannot be negative")
		}
		task.EtaSec = fields.EtaSec
	}

	switch {
	case fields.ClearDue:
		task.DueAt = nil
	case fields.DueAt != nil:
		due := fields.DueAt.UTC()
		task.DueAt = &due
	}

	if fields.SetTags || fields.Tags != nil {
		task.SetTags(fields.Tags)
	}
	return nil
}

func parseStatus(fields *ports.TaskFields) error {
	if fields.Status == nil {
		return nil
	}
	status, err := domain.ParseTaskStatus(string(*fields.Status))
	if err != nil {
		return err
	}
	fields.Status = &status
	return nil
}

func priorityWeight(ctx context.Context, tx ports.Repositories, id int64) (int, error) {
	priorities, err := tx.Catalog().ListPriorities(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range priorities {
		if p.ID == id {
			return p.Weight, nil
		}
	}
	return 0, domain.Invalid("priority_id", "unknown priority %d", id)
}

// DeleteTask removes a task with its sessions, pauses and tag links.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := domain.ValidateID(id); err != nil {
		return err
	}
	log := s.opLogger("delete_task", "task_id", id)

	if err := s.storage.Tasks().Delete(ctx, id); err != nil {
		return s.fail(log, "delete task", err)
	}
	log.Info("task deleted")
	return nil
}

// GetTask retrieves a single task by ID.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}
	task, err := s.storage.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(s.opLogger("get_task", "task_id", id), "get task", err)
	}
	return task, nil
}

// ListTasks returns one page of tasks and the total match count.
func (s *TaskService) ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	page, err := s.storage.Tasks().List(ctx, q)
	if err != nil {
		return nil, s.fail(s.opLogger("list_tasks"), "list tasks", err)
	}
	if page.Items == nil {
		page.Items = []*domain.Task{}
	}
	return page, nil
}

// FindByTitle fuzzy-matches open tasks by title.
func (s *TaskService) FindByTitle(ctx context.Context, query string, limit int) ([]*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("query", "cannot be empty")
	}
	tasks, err := s.storage.Tasks().FindByTitle(ctx, query, limit)
	if err != nil {
		return nil, s.fail(s.opLogger("find_task"), "find task", err)
	}
	return tasks, nil
}

// ListTags returns popular tags, or the tags starting with prefix.
func (s *TaskService) ListTags(ctx context.Context, prefix string, limit int) ([]domain.TagCount, error) {
	tags, err := s.storage.Catalog().ListTags(ctx, prefix, limit)
	if err != nil {
		return nil, s.fail(s.opLogger("list_tags"), "list tags", err)
	}
	return tags, nil
}

// ListProjects returns all projects.
func (s *TaskService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.storage.Catalog().ListProjects(ctx)
	if err != nil {
		return nil, s.fail(s.opLogger("list_projects"), "list projects", err)
	}
	return projects, nil
}

// EnsureProject returns the project with the given name, creating it if needed.
func (s *TaskService) EnsureProject(ctx context.Context, name string) (*domain.Project, error) {
	project, err := s.storage.Catalog().EnsureProject(ctx, name)
	if err != nil {
		return nil, s.fail(s.opLogger("ensure_project"), "save project", err)
	}
	return project, nil
}

// ListPriorities returns the priority lookup.
func (s *TaskService) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	priorities, err := s.storage.Catalog().ListPriorities(ctx)
	if err != nil {
		return nil, s.fail(s.opLogger("list_priorities"), "list priorities", err)
	}
	return priorities, nil
}
