package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/tasklist/internal/app"
	"github.com/evanschultz/tasklist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks() []domain.Task {
	return []domain.Task{
		{ID: 1, Text: "Fix | pipe", TeamMember: "Alice", Priority: domain.PriorityHigh},
		{ID: 2, Text: "Buy milk", TeamMember: "Bob", Priority: domain.PriorityLow, Completed: true},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json": FormatJSON, " YAML ": FormatYAML, "yml": FormatYAML,
		"md": FormatMarkdown, "markdown": FormatMarkdown, "table": FormatTable,
	}
	for raw, want := range cases {
		got, err := ParseFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("backup.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("/tmp/a.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("a.json"))
	assert.Equal(t, FormatJSON, FormatForPath("noext"))
}

func TestRowsIncludeDerivedFields(t *testing.T) {
	rows := Rows(sampleTasks())
	require.Len(t, rows, 2)
	assert.Equal(t, "High priority", rows[0].PriorityLabel)
	assert.Equal(t, domain.AvatarFor(domain.PriorityHigh), rows[0].Avatar)
	assert.True(t, rows[1].Completed)
}

func TestWriteTasksJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, FormatJSON, sampleTasks(), RenderOptions{}))

	var rows []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, Rows(sampleTasks()), rows)
}

func TestWriteTasksYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, FormatYAML, sampleTasks(), RenderOptions{}))
	out := buf.String()
	assert.Contains(t, out, "team_member: Alice")
	assert.Contains(t, out, "priority_label: Low priority")
}

func TestMarkdownTable(t *testing.T) {
	md := Markdown(sampleTasks())
	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `|   | Alice | Fix \| pipe | High priority | 1 |`, lines[2])
	assert.Equal(t, `| x | Bob | ~~Buy milk~~ | Low priority | 2 |`, lines[3])
	assert.Equal(t, "_No tasks._\n", Markdown(nil))
}

func TestWriteTasksTableRendersForTerminal(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTasks(&buf, FormatTable, sampleTasks()[1:], RenderOptions{Width: 100, Style: "notty"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Buy milk")
	assert.Contains(t, buf.String(), "Bob")
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := app.Snapshot{
		Version:    app.SnapshotVersion,
		ExportedAt: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
		Tasks:      sampleTasks(),
	}
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSnapshot(&buf, format, snap))
			got, err := ReadSnapshot(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, snap.Version, got.Version)
			assert.True(t, snap.ExportedAt.Equal(got.ExportedAt))
			assert.Equal(t, snap.Tasks, got.Tasks)
		})
	}
}

func TestSnapshotRejectsTableFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteSnapshot(&buf, FormatMarkdown, app.Snapshot{}), ErrUnsupportedFormat)
	_, err := ReadSnapshot(strings.NewReader(""), FormatTable)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
