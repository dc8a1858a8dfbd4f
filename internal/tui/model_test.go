package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/tasklist/internal/adapters/storage/memory"
	"github.com/evanschultz/tasklist/internal/app"
	"github.com/evanschultz/tasklist/internal/domain"
)

const seededTasks = `[
	{"id":1,"text":"Low one","completed":false,"priority":"low","teamMember":"Ann"},
	{"id":2,"text":"High two","completed":false,"priority":"high","teamMember":"Ben"},
	{"id":3,"text":"Middle three","completed":true,"priority":"middle","teamMember":"Cat"}
]`

func newLoadedList(t *testing.T, store *memory.Store) *app.TaskList {
	t.Helper()
	l := app.NewTaskList(store, app.WithClock(func() time.Time { return time.UnixMilli(0) }))
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return l
}

func seededModel(t *testing.T, opts ...Option) (Model, *app.TaskList) {
	t.Helper()
	l := newLoadedList(t, memory.NewWithValues(map[string]string{"tasks": seededTasks}))
	return loadReadyModel(t, NewModel(l, opts...)), l
}

func TestModelAddTaskFlow(t *testing.T) {
	store := memory.New()
	l := newLoadedList(t, store)
	m := loadReadyModel(t, NewModel(l))

	m = applyMsg(t, m, keyRune('n'))
	if m.mode != modeAddTask {
		t.Fatalf("expected add mode, got %d", m.mode)
	}
	m = typeText(t, m, "Ship")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = typeText(t, m, "Bo")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if got := l.Draft(); got.Text != "Ship" || got.TeamMember != "Bo" || got.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected bound draft %#v", got)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.mode != modeNone {
		t.Fatalf("expected form closed after add, got mode %d", m.mode)
	}
	tasks := l.Tasks()
	if len(tasks) != 1 || tasks[0].Text != "Ship" || tasks[0].TeamMember != "Bo" || tasks[0].Priority != domain.PriorityHigh {
		t.Fatalf("unexpected tasks after add %#v", tasks)
	}
	if got := l.Draft(); got != app.DefaultDraft() {
		t.Fatalf("expected draft reset, got %#v", got)
	}
	if raw, ok, _ := store.Get(context.Background(), "tasks"); !ok || !strings.Contains(raw, `"Ship"`) {
		t.Fatalf("expected persisted task, got %q", raw)
	}
	if !strings.Contains(m.render(), "Ship") {
		t.Fatal("expected new task rendered")
	}
}

func TestModelAddTaskRequiresTextAndMember(t *testing.T) {
	l := newLoadedList(t, memory.New())
	m := loadReadyModel(t, NewModel(l))

	m = applyMsg(t, m, keyRune('n'))
	m = typeText(t, m, "Alone")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeAddTask {
		t.Fatalf("expected form kept open, got mode %d", m.mode)
	}
	if len(l.Tasks()) != 0 {
		t.Fatalf("expected no task added, got %#v", l.Tasks())
	}
	if !strings.Contains(m.status, "required") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected esc to close form, got mode %d", m.mode)
	}
	if l.Draft().Text != "Alone" {
		t.Fatalf("expected draft kept after cancel, got %#v", l.Draft())
	}

	m = applyMsg(t, m, keyRune('n'))
	if got := m.formInputs[formFieldText].Value(); got != "Alone" {
		t.Fatalf("expected form reopened with draft, got %q", got)
	}
}

func TestModelNavigationAndToggle(t *testing.T) {
	m, l := seededModel(t)

	// priority sort: High two, Middle three, Low one
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if m.selected != 2 {
		t.Fatalf("expected selection clamped at 2, got %d", m.selected)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: ' ', Text: " "})
	task, _ := l.Task(1)
	if !task.Completed {
		t.Fatal("expected selected task completed")
	}
	m = applyMsg(t, m, keyRune('x'))
	task, _ = l.Task(1)
	if task.Completed {
		t.Fatal("expected second toggle to reopen task")
	}
	m = applyMsg(t, m, keyRune('k'))
	if m.selected != 1 {
		t.Fatalf("expected selection 1, got %d", m.selected)
	}
}

func TestModelRemoveWithConfirmation(t *testing.T) {
	m, l := seededModel(t)

	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeConfirmRemove {
		t.Fatalf("expected confirm mode, got %d", m.mode)
	}
	if !strings.Contains(m.render(), "remove selected task?") {
		t.Fatal("expected confirm prompt rendered")
	}
	m = applyMsg(t, m, keyRune('n'))
	if len(l.Tasks()) != 3 {
		t.Fatalf("expected cancel to keep tasks, got %d", len(l.Tasks()))
	}

	m = applyMsg(t, m, keyRune('d'))
	m = applyMsg(t, m, keyRune('y'))
	if _, ok := l.Task(2); ok {
		t.Fatal("expected selected high priority task removed")
	}
	if m.mode != modeNone || m.status != "removed task" {
		t.Fatalf("unexpected state mode=%d status=%q", m.mode, m.status)
	}
}

func TestModelRemoveWithoutConfirmation(t *testing.T) {
	m, l := seededModel(t, WithViewConfig(ViewConfig{ConfirmRemove: false, ShowStats: true}))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('d'))
	if len(l.Tasks()) != 2 {
		t.Fatalf("expected immediate removal, got %d tasks", len(l.Tasks()))
	}
	if m.selected != 1 {
		t.Fatalf("expected selection clamped to last row, got %d", m.selected)
	}
}

func TestModelFilterAndSortCycle(t *testing.T) {
	m, l := seededModel(t)

	m = applyMsg(t, m, keyRune('f'))
	if l.Filter() != domain.FilterCompleted {
		t.Fatalf("expected completed filter, got %q", l.Filter())
	}
	view := m.render()
	if !strings.Contains(view, "Cat") || strings.Contains(view, "High two") {
		t.Fatalf("unexpected filtered view\n%s", view)
	}
	m = applyMsg(t, m, keyRune('f'))
	if l.Filter() != domain.FilterIncomplete {
		t.Fatalf("expected incomplete filter, got %q", l.Filter())
	}
	m = applyMsg(t, m, keyRune('f'))
	if l.Filter() != domain.FilterAll {
		t.Fatalf("expected all filter, got %q", l.Filter())
	}

	m = applyMsg(t, m, keyRune('s'))
	if l.Sort() != domain.SortDate {
		t.Fatalf("expected date sort, got %q", l.Sort())
	}
	view = m.render()
	if strings.Index(view, "Low one") > strings.Index(view, "High two") {
		t.Fatalf("expected id order in date sort\n%s", view)
	}
	if m.status != "sort: date" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelScrollKeepsSelectionVisible(t *testing.T) {
	list := newLoadedList(t, memory.New())
	for i := range 30 {
		if _, ok := list.AddTask(context.Background(), fmt.Sprintf("task-%02d", i), "Ann", domain.PriorityLow); !ok {
			t.Fatalf("AddTask(%d) rejected", i)
		}
	}
	m := loadReadyModel(t, NewModel(list))
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 12})

	for range 25 {
		m = applyMsg(t, m, keyRune('j'))
	}
	view := m.render()
	if !strings.Contains(view, "task-25") {
		t.Fatalf("expected selected row task-25 in view\n%s", view)
	}
	if strings.Contains(view, "task-00") {
		t.Fatalf("expected first row scrolled out of view\n%s", view)
	}
	if got := strings.Count(view, "\n") + 1; got != 12 {
		t.Fatalf("expected 12 rendered lines, got %d\n%s", got, view)
	}

	for range 25 {
		m = applyMsg(t, m, keyRune('k'))
	}
	view = m.render()
	if !strings.Contains(view, "task-00") || strings.Contains(view, "task-25") {
		t.Fatalf("expected window back at the top\n%s", view)
	}
}

func TestTaskWindow(t *testing.T) {
	cases := []struct {
		total, selected, height int
		start, end              int
	}{
		{total: 5, selected: 4, height: 10, start: 0, end: 5},
		{total: 30, selected: 0, height: 4, start: 0, end: 4},
		{total: 30, selected: 25, height: 4, start: 22, end: 26},
		{total: 30, selected: 29, height: 4, start: 26, end: 30},
		{total: 30, selected: 7, height: 0, start: 7, end: 8},
	}
	for _, tc := range cases {
		start, end := taskWindow(tc.total, tc.selected, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("taskWindow(%d, %d, %d) = [%d,%d), want [%d,%d)", tc.total, tc.selected, tc.height, start, end, tc.start, tc.end)
		}
	}
}

func TestModelViewShowsBadgeLabelsAndAvatar(t *testing.T) {
	m, _ := seededModel(t)
	view := m.render()
	for _, want := range []string{"(B)", "High priority", "Low priority", "Middle priority", domain.AvatarFor(domain.PriorityHigh), "3 total", "1 done", "2 remaining"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view\n%s", want, view)
		}
	}

	hidden, _ := seededModel(t, WithViewConfig(ViewConfig{ConfirmRemove: true, ShowStats: false}))
	if strings.Contains(hidden.render(), "remaining") {
		t.Fatal("expected stats hidden")
	}
}

func TestModelEmptyView(t *testing.T) {
	m := loadReadyModel(t, NewModel(newLoadedList(t, memory.New())))
	if !strings.Contains(m.render(), "No tasks. Press n to add one.") {
		t.Fatalf("unexpected empty view\n%s", m.render())
	}
	if v := m.View(); v.Content == nil || !v.AltScreen {
		t.Fatal("expected alt-screen view with content")
	}
	m = applyMsg(t, m, keyRune('d'))
	if m.status != "no task selected" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelCopySelectedText(t *testing.T) {
	var copied string
	m, _ := seededModel(t, WithClipboard(func(text string) error {
		copied = text
		return nil
	}))
	m = applyMsg(t, m, keyRune('y'))
	if copied != "High two" {
		t.Fatalf("expected selected text copied, got %q", copied)
	}
	if m.status != "copied High two" {
		t.Fatalf("unexpected status %q", m.status)
	}

	failing, _ := seededModel(t, WithClipboard(func(string) error { return errors.New("no display") }))
	failing = applyMsg(t, failing, keyRune('y'))
	if !strings.Contains(failing.status, "no display") {
		t.Fatalf("expected copy error status, got %q", failing.status)
	}
}

func TestModelSurfacesWriteFailure(t *testing.T) {
	store := memory.NewWithValues(map[string]string{"tasks": seededTasks})
	l := newLoadedList(t, store)
	m := loadReadyModel(t, NewModel(l))
	store.FailWrites(errors.New("disk full"))

	m = applyMsg(t, m, keyRune('x'))
	if !strings.Contains(m.status, "not saved") || !strings.Contains(m.status, "disk full") {
		t.Fatalf("unexpected status %q", m.status)
	}
	task, _ := l.Task(2)
	if !task.Completed {
		t.Fatal("expected in-memory toggle despite write failure")
	}
}

func TestModelKeyConfigOverrides(t *testing.T) {
	m, l := seededModel(t, WithKeyConfig(KeyConfig{Add: "a", Toggle: "t"}))
	m = applyMsg(t, m, keyRune('t'))
	if task, _ := l.Task(2); !task.Completed {
		t.Fatal("expected configured toggle key to complete task")
	}
	m = applyMsg(t, m, keyRune('a'))
	if m.mode != modeAddTask {
		t.Fatalf("expected configured add key to open form, got %d", m.mode)
	}
}

func TestModelHelpAndQuit(t *testing.T) {
	m, _ := seededModel(t)
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected full help shown")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", cmd())
	}
}

func TestHelpers(t *testing.T) {
	if clamp(5, 0, 2) != 2 || clamp(-1, 0, 2) != 0 || clamp(3, 0, -1) != 0 {
		t.Fatal("unexpected clamp results")
	}
	if truncate("abcdef", 4) != "abc…" || truncate("abc", 4) != "abc" || truncate("abc", 0) != "" {
		t.Fatal("unexpected truncate results")
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("unexpected fitLines %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("unexpected fitLines padding %q", got)
	}
	if initial(" bob") != "B" || initial("") != "?" {
		t.Fatal("unexpected initials")
	}
	if priorityIndex(domain.PriorityHigh) != 2 || priorityIndex("bogus") != 0 {
		t.Fatal("unexpected priority index")
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 160, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// applyCmd runs cmd chains, skipping batches and quit.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		switch msg.(type) {
		case nil, tea.QuitMsg, tea.BatchMsg:
			return out
		}
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = applyMsg(t, m, keyRune(r))
	}
	return m
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
