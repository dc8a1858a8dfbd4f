package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanschultz/tasklist/internal/domain"
)

// EncodeTasks serializes tasks in storage order as a JSON array.
func EncodeTasks(tasks []domain.Task) (string, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	encoded, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode tasks json: %w", err)
	}
	return string(encoded), nil
}

// DecodeTasks parses a persisted task array. An empty or null value decodes
// to no tasks. A value that is not a JSON task array returns ErrCorruptState.
// Entries failing validation, or repeating an earlier id, are dropped and
// reported in skipped.
func DecodeTasks(raw string) (tasks []domain.Task, skipped []error, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil, nil
	}
	var decoded []domain.Task
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	tasks = make([]domain.Task, 0, len(decoded))
	seen := make(map[int64]struct{}, len(decoded))
	for idx, in := range decoded {
		task, err := domain.NewTask(domain.TaskInput{
			ID:         in.ID,
			Text:       in.Text,
			TeamMember: in.TeamMember,
			Priority:   in.Priority,
		})
		if err != nil {
			skipped = append(skipped, fmt.Errorf("tasks[%d]: %w", idx, err))
			continue
		}
		if _, dup := seen[task.ID]; dup {
			skipped = append(skipped, fmt.Errorf("tasks[%d]: duplicate id %d", idx, task.ID))
			continue
		}
		seen[task.ID] = struct{}{}
		task.Completed = in.Completed
		tasks = append(tasks, task)
	}
	return tasks, skipped, nil
}
