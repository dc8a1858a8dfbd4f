package app

import (
	"context"
	"fmt"
	"time"

	"github.com/evanschultz/tasklist/internal/domain"
)

// SnapshotVersion identifies the export file layout.
const SnapshotVersion = "tasklist.snapshot.v1"

// Snapshot is the portable export of a whole task list.
type Snapshot struct {
	Version    string        `json:"version" yaml:"version"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Tasks      []domain.Task `json:"tasks" yaml:"tasks"`
}

// Export captures every task in storage order.
func (l *TaskList) Export() Snapshot {
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: l.clock().UTC().Truncate(time.Second),
		Tasks:      l.Tasks(),
	}
}

// Import replaces the list with the snapshot's tasks and persists the result.
// Unlike Load, any invalid entry rejects the whole snapshot.
func (l *TaskList) Import(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	tasks := make([]domain.Task, 0, len(snap.Tasks))
	for _, in := range snap.Tasks {
		task, _ := domain.NewTask(domain.TaskInput{
			ID:         in.ID,
			Text:       in.Text,
			TeamMember: in.TeamMember,
			Priority:   in.Priority,
		})
		task.Completed = in.Completed
		tasks = append(tasks, task)
	}
	l.replace(tasks)
	l.persist(ctx)
	l.logger.Info("task list imported", "key", l.key, "count", len(l.tasks))
	l.notify(Event{Kind: EventImported})
	return nil
}

// Validate checks version, per-task rules, and id uniqueness.
func (s Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	seen := make(map[int64]struct{}, len(s.Tasks))
	for i, task := range s.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: tasks[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if _, dup := seen[task.ID]; dup {
			return fmt.Errorf("%w: tasks[%d]: duplicate id %d", ErrInvalidSnapshot, i, task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}
