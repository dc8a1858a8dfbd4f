// Package export encodes task lists and snapshots for the CLI: json and yaml
// for scripts, markdown for reading.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/evanschultz/tasklist/internal/app"
	"github.com/evanschultz/tasklist/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

// FormatTable and related constants define the supported encodings.
const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ErrUnsupportedFormat reports a format the operation cannot produce or read.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat normalizes user input.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatTable, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// FormatForPath guesses a snapshot format from a file extension, defaulting to json.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Row is one task as presented to readers, with derived display fields.
type Row struct {
	ID            int64           `json:"id" yaml:"id"`
	Text          string          `json:"text" yaml:"text"`
	TeamMember    string          `json:"teamMember" yaml:"team_member"`
	Avatar        string          `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Priority      domain.Priority `json:"priority" yaml:"priority"`
	PriorityLabel string          `json:"priorityLabel" yaml:"priority_label"`
	Completed     bool            `json:"completed" yaml:"completed"`
}

// Rows maps tasks to display rows, preserving order.
func Rows(tasks []domain.Task) []Row {
	out := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, Row{
			ID:            task.ID,
			Text:          task.Text,
			TeamMember:    task.TeamMember,
			Avatar:        domain.AvatarFor(task.Priority),
			Priority:      task.Priority,
			PriorityLabel: task.Priority.Label(),
			Completed:     task.Completed,
		})
	}
	return out
}

// WriteTasks encodes tasks in format. FormatTable renders the markdown
// table for a terminal using opts.
func WriteTasks(w io.Writer, format Format, tasks []domain.Task, opts RenderOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, Rows(tasks))
	case FormatYAML:
		return writeYAML(w, Rows(tasks))
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(tasks))
		return err
	case FormatTable:
		rendered, err := Render(Markdown(tasks), opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, rendered+"\n")
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteSnapshot encodes snap as json or yaml.
func WriteSnapshot(w io.Writer, format Format, snap app.Snapshot) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, snap)
	case FormatYAML:
		return writeYAML(w, snap)
	default:
		return fmt.Errorf("%w for snapshots: %q", ErrUnsupportedFormat, format)
	}
}

// ReadSnapshot decodes a json or yaml snapshot.
func ReadSnapshot(r io.Reader, format Format) (app.Snapshot, error) {
	var snap app.Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
	default:
		return app.Snapshot{}, fmt.Errorf("%w for snapshots: %q", ErrUnsupportedFormat, format)
	}
	return snap, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
