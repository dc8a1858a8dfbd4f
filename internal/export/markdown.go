package export

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/evanschultz/tasklist/internal/domain"
)

// RenderOptions controls terminal markdown rendering.
type RenderOptions struct {
	Width int
	// Style is a glamour standard style name; empty picks one from the terminal.
	Style string
}

// Markdown renders tasks as a GitHub-flavored table.
func Markdown(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return "_No tasks._\n"
	}
	var b strings.Builder
	b.WriteString("| Done | Team Member | Task | Priority | ID |\n")
	b.WriteString("| :--: | --- | --- | --- | --: |\n")
	for _, task := range tasks {
		mark := " "
		text := escapeCell(task.Text)
		if task.Completed {
			mark = "x"
			text = "~~" + text + "~~"
		}
		b.WriteString("| " + mark + " | " + escapeCell(task.TeamMember) + " | " + text + " | " + task.Priority.Label() + " | ")
		b.WriteString(strconv.FormatInt(task.ID, 10) + " |\n")
	}
	return b.String()
}

// Render converts markdown into ANSI-styled terminal text wrapped at opts.Width.
func Render(markdown string, opts RenderOptions) (string, error) {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", nil
	}
	wrapWidth := max(opts.Width, 24)
	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return "", err
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n"), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
