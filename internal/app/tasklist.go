package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/tasklist/internal/domain"
)

// DefaultStorageKey names the storage slot holding the serialized task list.
const DefaultStorageKey = "tasks"

// Clock returns the current time.
type Clock func() time.Time

// Draft holds the unsaved add-form values bound to the view.
type Draft struct {
	Text       string
	TeamMember string
	Priority   domain.Priority
}

// DefaultDraft returns the draft every successful add resets to.
func DefaultDraft() Draft {
	return Draft{Priority: domain.PriorityLow}
}

// Stats summarizes completion counts over the whole list.
type Stats struct {
	Total     int
	Completed int
	Remaining int
}

// Option configures a TaskList.
type Option func(*TaskList)

// WithClock overrides the clock used for task ids and export timestamps.
func WithClock(clock Clock) Option {
	return func(l *TaskList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger routes storage and decode diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(l *TaskList) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStorageKey overrides the storage slot name.
func WithStorageKey(key string) Option {
	return func(l *TaskList) {
		if key = strings.TrimSpace(key); key != "" {
			l.key = key
		}
	}
}

// WithDefaultFilter sets the initial filter.
func WithDefaultFilter(filter domain.Filter) Option {
	return func(l *TaskList) {
		if filter.Valid() {
			l.filter = filter
		}
	}
}

// WithDefaultSort sets the initial sort mode.
func WithDefaultSort(mode domain.SortMode) Option {
	return func(l *TaskList) {
		if mode.Valid() {
			l.sort = mode
		}
	}
}

type observer struct {
	id int
	fn func(Event)
}

// TaskList owns the task sequence, the view-transient state, and keeps the
// store synchronized after every mutation. It is not safe for concurrent use;
// callers drive it from a single loop.
type TaskList struct {
	store  Store
	key    string
	clock  Clock
	logger Logger

	tasks  []domain.Task
	lastID int64

	draft  Draft
	filter domain.Filter
	sort   domain.SortMode

	observers      []observer
	nextObserverID int

	persistErr error
}

// NewTaskList constructs an empty list backed by store. Call Load to read
// previously persisted tasks.
func NewTaskList(store Store, opts ...Option) *TaskList {
	l := &TaskList{
		store:  store,
		key:    DefaultStorageKey,
		clock:  time.Now,
		logger: charmLog.New(io.Discard),
		draft:  DefaultDraft(),
		filter: domain.FilterAll,
		sort:   domain.SortPriority,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// StorageKey returns the storage slot name.
func (l *TaskList) StorageKey() string {
	return l.key
}

// Load replaces in-memory state with the persisted list. A missing key yields
// an empty list; an unparsable value is logged and also yields an empty list.
// Only a storage read failure is returned.
func (l *TaskList) Load(ctx context.Context) error {
	var tasks []domain.Task
	if l.store != nil {
		raw, ok, err := l.store.Get(ctx, l.key)
		if err != nil {
			return fmt.Errorf("read %q: %w", l.key, err)
		}
		if ok {
			decoded, skipped, err := DecodeTasks(raw)
			if err != nil {
				l.logger.Warn("persisted task list unreadable, starting empty", "key", l.key, "err", err)
			}
			for _, skipErr := range skipped {
				l.logger.Warn("dropping persisted task", "key", l.key, "err", skipErr)
			}
			tasks = decoded
		}
	}
	l.replace(tasks)
	l.logger.Debug("task list loaded", "key", l.key, "count", len(l.tasks))
	l.notify(Event{Kind: EventLoaded})
	return nil
}

// AddTask appends a new incomplete task. Blank text or team member (after
// trimming) or an unknown priority leaves state untouched and returns false.
func (l *TaskList) AddTask(ctx context.Context, text, teamMember string, priority domain.Priority) (domain.Task, bool) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(teamMember) == "" {
		return domain.Task{}, false
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:         l.peekID(),
		Text:       text,
		TeamMember: teamMember,
		Priority:   priority,
	})
	if err != nil {
		return domain.Task{}, false
	}
	l.lastID = task.ID
	l.tasks = append(l.tasks, task)
	l.draft = DefaultDraft()
	l.persist(ctx)
	l.notify(Event{Kind: EventAdded, TaskID: task.ID})
	return task, true
}

// SetDraft stores the add-form values.
func (l *TaskList) SetDraft(d Draft) {
	l.draft = d
}

// Draft returns the current add-form values.
func (l *TaskList) Draft() Draft {
	return l.draft
}

// SubmitDraft adds a task from the current draft.
func (l *TaskList) SubmitDraft(ctx context.Context) (domain.Task, bool) {
	d := l.draft
	return l.AddTask(ctx, d.Text, d.TeamMember, d.Priority)
}

// RemoveTask deletes the task with id. An unknown id is a no-op.
func (l *TaskList) RemoveTask(ctx context.Context, id int64) bool {
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	l.tasks = slices.Delete(l.tasks, idx, idx+1)
	l.persist(ctx)
	l.notify(Event{Kind: EventRemoved, TaskID: id})
	return true
}

// ToggleComplete flips the completed flag of the task with id. An unknown id
// is a no-op.
func (l *TaskList) ToggleComplete(ctx context.Context, id int64) (domain.Task, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	l.tasks[idx].ToggleComplete()
	task := l.tasks[idx]
	l.persist(ctx)
	l.notify(Event{Kind: EventToggled, TaskID: id})
	return task, true
}

// SetFilter changes the active filter. Values outside the enum are ignored.
func (l *TaskList) SetFilter(filter domain.Filter) {
	if !filter.Valid() || filter == l.filter {
		return
	}
	l.filter = filter
	l.notify(Event{Kind: EventFilterChanged})
}

// SetSort changes the active sort mode. Values outside the enum are ignored.
func (l *TaskList) SetSort(mode domain.SortMode) {
	if !mode.Valid() || mode == l.sort {
		return
	}
	l.sort = mode
	l.notify(Event{Kind: EventSortChanged})
}

func (l *TaskList) Filter() domain.Filter {
	return l.filter
}

func (l *TaskList) Sort() domain.SortMode {
	return l.sort
}

// VisibleTasks derives the filtered, sorted view. It returns a new slice and
// never reorders the stored sequence.
func (l *TaskList) VisibleTasks() []domain.Task {
	out := make([]domain.Task, 0, len(l.tasks))
	for _, task := range l.tasks {
		if l.filter.Matches(task) {
			out = append(out, task)
		}
	}
	slices.SortStableFunc(out, l.sort.Compare)
	return out
}

// Tasks returns every task in insertion order.
func (l *TaskList) Tasks() []domain.Task {
	return slices.Clone(l.tasks)
}

// Task returns the task with id.
func (l *TaskList) Task(id int64) (domain.Task, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	return l.tasks[idx], true
}

func (l *TaskList) Stats() Stats {
	stats := Stats{Total: len(l.tasks)}
	for _, task := range l.tasks {
		if task.Completed {
			stats.Completed++
		}
	}
	stats.Remaining = stats.Total - stats.Completed
	return stats
}

// PersistErr returns the last storage write failure, or nil when the most
// recent write succeeded.
func (l *TaskList) PersistErr() error {
	return l.persistErr
}

// peekID returns the next id without reserving it. Ids follow the clock in
// milliseconds and are bumped past the last issued id when the clock stalls.
func (l *TaskList) peekID() int64 {
	id := l.clock().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	return id
}

func (l *TaskList) indexOf(id int64) int {
	return slices.IndexFunc(l.tasks, func(task domain.Task) bool {
		return task.ID == id
	})
}

func (l *TaskList) replace(tasks []domain.Task) {
	l.tasks = slices.Clone(tasks)
	l.lastID = 0
	for _, task := range l.tasks {
		l.lastID = max(l.lastID, task.ID)
	}
}

// persist writes the full list. Failures are logged and recorded; the
// in-memory list stays authoritative.
func (l *TaskList) persist(ctx context.Context) {
	if l.store == nil {
		return
	}
	encoded, err := EncodeTasks(l.tasks)
	if err != nil {
		l.persistErr = fmt.Errorf("encode %q: %w", l.key, err)
		l.logger.Error("task list encode failed", "key", l.key, "err", err)
		return
	}
	if err := l.store.Set(ctx, l.key, encoded); err != nil {
		l.persistErr = fmt.Errorf("write %q: %w", l.key, err)
		l.logger.Warn("task list write failed", "key", l.key, "err", err)
		return
	}
	l.persistErr = nil
	l.logger.Debug("task list persisted", "key", l.key, "count", len(l.tasks))
}
