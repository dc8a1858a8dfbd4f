package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/tasklist/internal/app"
	"github.com/evanschultz/tasklist/internal/domain"
)

// Service is the task list surface the view drives.
type Service interface {
	VisibleTasks() []domain.Task
	Draft() app.Draft
	SetDraft(app.Draft)
	SubmitDraft(context.Context) (domain.Task, bool)
	RemoveTask(context.Context, int64) bool
	ToggleComplete(context.Context, int64) (domain.Task, bool)
	Filter() domain.Filter
	SetFilter(domain.Filter)
	Sort() domain.SortMode
	SetSort(domain.SortMode)
	Stats() app.Stats
	PersistErr() error
}

// inputMode selects which handler receives key presses.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeConfirmRemove
)

const (
	formFieldText = iota
	formFieldMember
	formFieldPriority
	formFieldCount
)

// Model is the bubbletea model for the task list screen.
type Model struct {
	svc Service
	ctx context.Context

	width  int
	height int

	status string

	help help.Model
	keys keyMap

	confirmRemove bool
	showStats     bool

	selected int

	mode        inputMode
	formInputs  []textinput.Model
	formFocus   int
	priorityIdx int

	pendingRemoveID int64

	copyToClipboard func(string) error
}

// actionMsg carries the outcome of an async command.
type actionMsg struct {
	err    error
	status string
}

// NewModel builds the screen for svc. Remove confirmation and stats are on
// unless opts say otherwise.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	view := DefaultViewConfig()
	m := Model{
		svc:             svc,
		ctx:             context.Background(),
		status:          "ready",
		help:            h,
		keys:            newKeyMap(),
		confirmRemove:   view.ConfirmRemove,
		showStats:       view.ShowStats,
		copyToClipboard: defaultClipboard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update routes key presses by mode and applies async results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeAddTask:
			return m.handleAddTaskKey(msg)
		case modeConfirmRemove:
			return m.handleConfirmRemoveKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// handleNormalModeKey handles keys while no form or prompt is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc":
		m.help.ShowAll = false
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selected = clamp(m.selected-1, 0, len(m.svc.VisibleTasks())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selected = clamp(m.selected+1, 0, len(m.svc.VisibleTasks())-1)
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		cmd := m.startAddTask()
		return m, cmd
	case key.Matches(msg, m.keys.toggle):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		updated, _ := m.svc.ToggleComplete(m.ctx, task.ID)
		if updated.Completed {
			m.status = "completed " + truncate(updated.Text, 40)
		} else {
			m.status = "reopened " + truncate(updated.Text, 40)
		}
		m.keepSelection(task.ID)
		m.notePersistErr()
		return m, nil
	case key.Matches(msg, m.keys.remove):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if m.confirmRemove {
			m.mode = modeConfirmRemove
			m.pendingRemoveID = task.ID
			m.status = "confirm remove"
			return m, nil
		}
		return m.removeTask(task.ID)
	case key.Matches(msg, m.keys.filter):
		m.svc.SetFilter(m.svc.Filter().Next())
		m.selected = clamp(m.selected, 0, len(m.svc.VisibleTasks())-1)
		m.status = "filter: " + string(m.svc.Filter())
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.svc.SetSort(m.svc.Sort().Next())
		m.status = "sort: " + string(m.svc.Sort())
		return m, nil
	case key.Matches(msg, m.keys.copyText):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTaskCmd(task)
	default:
		return m, nil
	}
}

// handleAddTaskKey routes keys to the add form.
func (m Model) handleAddTaskKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.syncDraft()
		m.mode = modeNone
		m.status = "add cancelled"
		return m, nil
	case "tab", "down":
		cmd := m.focusFormField(m.formFocus + 1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusFormField(m.formFocus - 1)
		return m, cmd
	case "enter":
		return m.submitAddTask()
	}
	if m.formFocus == formFieldPriority {
		switch msg.String() {
		case "left", "h":
			m.cyclePriority(-1)
		case "right", "l", " ", "space":
			m.cyclePriority(1)
		}
		m.syncDraft()
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	m.syncDraft()
	return m, cmd
}

// handleConfirmRemoveKey resolves the remove prompt.
func (m Model) handleConfirmRemoveKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.pendingRemoveID
		m.mode = modeNone
		m.pendingRemoveID = 0
		return m.removeTask(id)
	case "n", "esc":
		m.mode = modeNone
		m.pendingRemoveID = 0
		m.status = "remove cancelled"
		return m, nil
	default:
		return m, nil
	}
}

// startAddTask opens the add form seeded from the current draft.
func (m *Model) startAddTask() tea.Cmd {
	draft := m.svc.Draft()
	m.formInputs = []textinput.Model{
		newModalInput("text: ", "what needs doing", draft.Text, 200),
		newModalInput("member: ", "who owns it", draft.TeamMember, 80),
	}
	m.priorityIdx = priorityIndex(draft.Priority)
	m.mode = modeAddTask
	m.status = "new task"
	return m.focusFormField(formFieldText)
}

// focusFormField moves focus to idx, wrapping around the priority selector.
func (m *Model) focusFormField(idx int) tea.Cmd {
	idx = (idx%formFieldCount + formFieldCount) % formFieldCount
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	if idx < len(m.formInputs) {
		return m.formInputs[idx].Focus()
	}
	return nil
}

// cyclePriority steps the form's priority selector by delta, wrapping.
func (m *Model) cyclePriority(delta int) {
	options := domain.Priorities()
	m.priorityIdx = (m.priorityIdx + delta + len(options)) % len(options)
}

// formDraft reads the form into a draft.
func (m Model) formDraft() app.Draft {
	d := app.Draft{Priority: domain.Priorities()[clamp(m.priorityIdx, 0, len(domain.Priorities())-1)]}
	if len(m.formInputs) > formFieldMember {
		d.Text = m.formInputs[formFieldText].Value()
		d.TeamMember = m.formInputs[formFieldMember].Value()
	}
	return d
}

// syncDraft pushes form values into the service draft.
func (m *Model) syncDraft() {
	m.svc.SetDraft(m.formDraft())
}

// submitAddTask adds the drafted task when it is complete.
func (m Model) submitAddTask() (tea.Model, tea.Cmd) {
	m.syncDraft()
	task, ok := m.svc.SubmitDraft(m.ctx)
	if !ok {
		m.status = "text and team member are required"
		return m, nil
	}
	m.mode = modeNone
	m.formInputs = nil
	m.status = "added " + truncate(task.Text, 40)
	m.keepSelection(task.ID)
	m.notePersistErr()
	return m, nil
}

// removeTask removes id and keeps the cursor in range.
func (m Model) removeTask(id int64) (tea.Model, tea.Cmd) {
	if !m.svc.RemoveTask(m.ctx, id) {
		m.status = "task not found"
		return m, nil
	}
	m.selected = clamp(m.selected, 0, len(m.svc.VisibleTasks())-1)
	m.status = "removed task"
	m.notePersistErr()
	return m, nil
}

// copyTaskCmd copies task text off the update loop.
func (m Model) copyTaskCmd(task domain.Task) tea.Cmd {
	write := m.copyToClipboard
	text := task.Text
	return func() tea.Msg {
		if err := write(text); err != nil {
			return actionMsg{err: fmt.Errorf("copy: %w", err)}
		}
		return actionMsg{status: "copied " + truncate(text, 40)}
	}
}

// selectedTask returns the task under the cursor.
func (m Model) selectedTask() (domain.Task, bool) {
	tasks := m.svc.VisibleTasks()
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	return tasks[clamp(m.selected, 0, len(tasks)-1)], true
}

// keepSelection moves the cursor to id when it is still visible.
func (m *Model) keepSelection(id int64) {
	tasks := m.svc.VisibleTasks()
	if idx := slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id }); idx >= 0 {
		m.selected = idx
		return
	}
	m.selected = clamp(m.selected, 0, len(tasks)-1)
}

// notePersistErr surfaces the last storage write failure in the status line.
func (m *Model) notePersistErr() {
	if err := m.svc.PersistErr(); err != nil {
		m.status = "not saved: " + err.Error()
	}
}

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")

	priorityColors = map[domain.Priority]lipgloss.Style{
		domain.PriorityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		domain.PriorityMiddle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		domain.PriorityLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
	}
)

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render builds the full screen: header, rows, detail, modal, status and help.
func (m Model) render() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("Tasks")
	header += mutedStyle.Render(fmt.Sprintf("  filter: %s  sort: %s", m.svc.Filter(), m.svc.Sort()))
	top := []string{header}
	if m.showStats {
		stats := m.svc.Stats()
		top = append(top, mutedStyle.Render(fmt.Sprintf("%d total • %d done • %d remaining", stats.Total, stats.Completed, stats.Remaining)))
	}
	top = append(top, "")

	var bottom []string
	if task, ok := m.selectedTask(); ok {
		bottom = append(bottom, "", mutedStyle.Render(truncate(task.TeamMember+" • "+domain.AvatarFor(task.Priority), width)))
	}
	switch m.mode {
	case modeAddTask:
		bottom = append(bottom, "", m.renderAddForm(width))
	case modeConfirmRemove:
		bottom = append(bottom, "", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).Render("remove selected task? (y/n)"))
	}
	if strings.TrimSpace(m.status) != "" {
		bottom = append(bottom, "", statusStyle.Render(m.status))
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width).
		Render(helpBubble.View(m.keys))

	tasks := m.svc.VisibleTasks()
	rows := make([]string, 0, len(tasks))
	if len(tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks. Press "+m.keys.addTask.Help().Key+" to add one."))
	}
	selected := clamp(m.selected, 0, len(tasks)-1)
	start, end := 0, len(tasks)
	if m.height > 0 {
		fixed := len(top) + lipgloss.Height(helpLine)
		if len(bottom) > 0 {
			fixed += lipgloss.Height(strings.Join(bottom, "\n"))
		}
		start, end = taskWindow(len(tasks), selected, m.height-fixed)
	}
	for i := start; i < end; i++ {
		rows = append(rows, m.renderTaskRow(tasks[i], i == selected, width))
	}

	sections := append(append(top, rows...), bottom...)
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

// taskWindow returns the [start, end) range of rows that fits in height lines
// while keeping selected in view. At least one row is always shown.
func taskWindow(total, selected, height int) (int, int) {
	height = max(1, height)
	if total <= height {
		return 0, total
	}
	scrollTop := 0
	if selected >= scrollTop+height {
		scrollTop = selected - height + 1
	}
	scrollTop = clamp(scrollTop, 0, total-height)
	return scrollTop, scrollTop + height
}

// renderTaskRow renders one list row: avatar badge, text, member, priority label.
func (m Model) renderTaskRow(task domain.Task, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Foreground(accentColor).Render("> ")
	}
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	badge := priorityColors[task.Priority].Render("(" + initial(task.TeamMember) + ")")
	label := lipgloss.NewStyle().Foreground(mutedColor).Render(task.Priority.Label())
	textWidth := max(8, width-lipgloss.Width(label)-utf8.RuneCountInString(task.TeamMember)-16)
	textStyle := lipgloss.NewStyle()
	switch {
	case task.Completed:
		textStyle = textStyle.Strikethrough(true).Foreground(dimColor)
	case selected:
		textStyle = textStyle.Bold(true).Foreground(lipgloss.Color("212"))
	}
	text := textStyle.Render(truncate(task.Text, textWidth))
	return cursor + check + " " + badge + " " + text + "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(task.TeamMember) + "  " + label
}

// renderAddForm renders the add-task form.
func (m Model) renderAddForm(width int) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("New task")}
	for _, in := range m.formInputs {
		lines = append(lines, in.View())
	}
	options := domain.Priorities()
	parts := make([]string, 0, len(options))
	for i, p := range options {
		label := p.Label()
		if i == m.priorityIdx {
			label = priorityColors[p].Render("[" + label + "]")
		}
		parts = append(parts, label)
	}
	prefix := "priority: "
	if m.formFocus == formFieldPriority {
		prefix = lipgloss.NewStyle().Foreground(accentColor).Render("priority: ")
	}
	lines = append(lines, prefix+strings.Join(parts, "  "))
	lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("tab next • ←/→ priority • enter add • esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(min(width, 72)).
		Render(strings.Join(lines, "\n"))
}

// newModalInput constructs a prompt input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// priorityIndex returns the selector index of priority, defaulting to low.
func priorityIndex(priority domain.Priority) int {
	if idx := slices.Index(domain.Priorities(), priority); idx >= 0 {
		return idx
	}
	return 0
}

// initial returns the upper-cased first rune of name.
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return strings.ToUpper(string(r))
}

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// fitLines pads or trims content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = "…"
	}
	for len(lines) < maxLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
