package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseID reads a task or project id argument.
func parseID(field, arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(field, "must be a positive integer, got %q", arg)
	}
	return id, nil
}

func getStatusIcon(status domain.TaskStatus) string {
	switch status {
	case domain.StatusTodo:
		return "○"
	case domain.StatusInProgress:
		return "▶"
	case domain.StatusDone:
		return "✓"
	case domain.StatusArchived:
		return "▪"
	default:
		return "?"
	}
}

// taskLine is the one-line rendering used by list-like commands.
func taskLine(task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", getStatusIcon(task.Status), dimStyle.Render(fmt.Sprintf("#%d", task.ID)), task.Title)
	if task.ProjectName != "" {
		b.WriteString(dimStyle.Render(" [" + task.ProjectName + "]"))
	}
	if len(task.Tags) > 0 {
		b.WriteString(dimStyle.Render(" #" + strings.Join(task.Tags, " #")))
	}
	if task.DueAt != nil {
		b.WriteString(dimStyle.Render(" due " + task.DueAt.In(app.tracker.Location()).Format("2006-01-02")))
	}
	return b.String()
}

func formatSeconds(sec int64) string {
	return timecalc.FormatDuration(sec)
}

// parseDate reads a date flag in the report zone.
func parseDate(field, value string) (*time.Time, error) {
	return domain.ParseDate(field, value, app.tracker.Location())
}
