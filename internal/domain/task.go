package domain

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMiddle Priority = "middle"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMiddle, PriorityHigh}

// Priorities returns the selectable priorities in selector order.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// Rank orders priorities high first. Unknown values sort after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMiddle:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Label renders the badge text, e.g. "High priority".
func (p Priority) Label() string {
	r, size := utf8.DecodeRuneInString(string(p))
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + string(p)[size:] + " priority"
}

const (
	avatarHigh   = "https://mdbcdn.b-cdn.net/img/Photos/new-templates/bootstrap-chat/ava6-bg.webp"
	avatarMiddle = "https://mdbcdn.b-cdn.net/img/Photos/new-templates/bootstrap-chat/ava3-bg.webp"
	avatarLow    = "https://mdbcdn.b-cdn.net/img/Photos/new-templates/bootstrap-chat/ava2-bg.webp"
)

// AvatarFor returns the decorative avatar resource for a priority, or "" for unknown values.
func AvatarFor(p Priority) string {
	switch p {
	case PriorityHigh:
		return avatarHigh
	case PriorityMiddle:
		return avatarMiddle
	case PriorityLow:
		return avatarLow
	default:
		return ""
	}
}

type Task struct {
	ID         int64    `json:"id" yaml:"id"`
	Text       string   `json:"text" yaml:"text"`
	Completed  bool     `json:"completed" yaml:"completed"`
	Priority   Priority `json:"priority" yaml:"priority"`
	TeamMember string   `json:"teamMember" yaml:"team_member"`
}

type TaskInput struct {
	ID         int64
	Text       string
	TeamMember string
	Priority   Priority
}

func NewTask(in TaskInput) (Task, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.TeamMember = strings.TrimSpace(in.TeamMember)

	if in.ID <= 0 {
		return Task{}, ErrInvalidID
	}
	if in.Text == "" {
		return Task{}, ErrInvalidText
	}
	if in.TeamMember == "" {
		return Task{}, ErrInvalidTeamMember
	}
	if !in.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:         in.ID,
		Text:       in.Text,
		Priority:   in.Priority,
		TeamMember: in.TeamMember,
	}, nil
}

// Validate reports whether a decoded task satisfies the creation rules.
func (t Task) Validate() error {
	_, err := NewTask(TaskInput{
		ID:         t.ID,
		Text:       t.Text,
		TeamMember: t.TeamMember,
		Priority:   t.Priority,
	})
	return err
}

func (t *Task) ToggleComplete() {
	t.Completed = !t.Completed
}
