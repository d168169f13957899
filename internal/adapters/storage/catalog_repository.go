package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// catalogRepository implements ports.CatalogRepository using SQLite.
type catalogRepository struct {
	db dbtx
}

// ListTags returns the most used tags when prefix is empty, otherwise the
// tags starting with prefix (case-insensitive) in name order.
func (r *catalogRepository) ListTags(ctx context.Context, prefix string, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT g.name, COUNT(tt.task_id) AS freq
			FROM tags g
			LEFT JOIN task_tags tt ON tt.tag_id = g.id
			GROUP BY g.id
			ORDER BY freq DESC, g.name_key
			LIMIT ?`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT g.name, COUNT(tt.task_id) AS freq
			FROM tags g
			LEFT JOIN task_tags tt ON tt.tag_id = g.id
			WHERE g.name_key LIKE ? ESCAPE '\'
			GROUP BY g.id
			ORDER BY g.name_key
			LIMIT ?`, escapeLike(foldKey(prefix))+"%", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.TagCount{}
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// ListProjects returns all projects by name.
func (r *catalogRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// FindProject returns a project by id.
func (r *catalogRepository) FindProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM projects WHERE id = ?`, id).Scan(&p.ID, &p.Name)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &p, nil
}

// EnsureProject returns the project named name, creating it if needed.
// Names compare case-insensitively.
func (r *catalogRepository) EnsureProject(ctx context.Context, name string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("project", "name cannot be empty")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO projects (name, name_key, created_at) VALUES (?, ?, ?)`,
		name, foldKey(name), toMillis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	var p domain.Project
	err = r.db.QueryRowContext(ctx, `SELECT id, name FROM projects WHERE name_key = ?`, foldKey(name)).Scan(&p.ID, &p.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &p, nil
}

// ListPriorities returns the seeded priorities by weight.
func (r *catalogRepository) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, weight FROM priorities ORDER BY weight`)
	if err != nil {
		return nil, fmt.Errorf("failed to query priorities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var priorities []domain.Priority
	for rows.Next() {
		var p domain.Priority
		if err := rows.Scan(&p.ID, &p.Label, &p.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan priority: %w", err)
		}
		priorities = append(priorities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate priorities: %w", err)
	}
	return priorities, nil
}
