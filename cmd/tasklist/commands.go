package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/tasklist/internal/config"
	"github.com/evanschultz/tasklist/internal/domain"
	"github.com/evanschultz/tasklist/internal/export"
	"github.com/evanschultz/tasklist/internal/tui"
	"github.com/spf13/cobra"
)

// errRejectedTask reports an add that failed validation.
var errRejectedTask = errors.New("task text and team member are required")

// withSession opens a session around fn and logs the command flow.
func withSession(ctx context.Context, opts *rootOptions, command string, quiet bool, fn func(*session) error) (err error) {
	s, err := opts.openSession(ctx, command, quiet)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close session: %w", closeErr)
		}
	}()
	s.logger.Info("command flow start", "command", command)
	if err := fn(s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI launches the interactive list.
func runTUI(ctx context.Context, opts *rootOptions) error {
	return withSession(ctx, opts, "tui", true, func(s *session) error {
		modelOpts := []tui.Option{
			tui.WithContext(ctx),
			tui.WithViewConfig(tui.ViewConfig{
				ConfirmRemove: s.cfg.View.ConfirmRemove,
				ShowStats:     s.cfg.View.ShowStats,
			}),
			tui.WithKeyConfig(tui.KeyConfig{
				Add:    s.cfg.Keys.Add,
				Toggle: s.cfg.Keys.Toggle,
				Remove: s.cfg.Keys.Remove,
				Filter: s.cfg.Keys.Filter,
				Sort:   s.cfg.Keys.Sort,
				Copy:   s.cfg.Keys.Copy,
			}),
		}
		if clipboardWriter != nil {
			modelOpts = append(modelOpts, tui.WithClipboard(clipboardWriter))
		}
		s.logger.Info("starting tui program loop")
		if _, err := programFactory(tui.NewModel(s.list, modelOpts...)).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var (
		priority string
		member   string
	)
	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := domain.ParsePriority(priority)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "add", false, func(s *session) error {
				task, ok := s.list.AddTask(cmd.Context(), strings.Join(args, " "), member, p)
				if !ok {
					return errRejectedTask
				}
				if err := s.persisted(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "added %d\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(domain.PriorityLow), "low, middle, or high")
	cmd.Flags().StringVarP(&member, "member", "m", "", "team member owning the task")
	return cmd
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "rm", false, func(s *session) error {
				if !s.list.RemoveTask(cmd.Context(), id) {
					return fmt.Errorf("task %d not found", id)
				}
				if err := s.persisted(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "removed %d\n", id)
				return nil
			})
		},
	}
}

func newToggleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a task between done and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "toggle", false, func(s *session) error {
				task, ok := s.list.ToggleComplete(cmd.Context(), id)
				if !ok {
					return fmt.Errorf("task %d not found", id)
				}
				if err := s.persisted(); err != nil {
					return err
				}
				state := "open"
				if task.Completed {
					state = "done"
				}
				_, _ = fmt.Fprintf(opts.stdout, "%d %s\n", id, state)
				return nil
			})
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		filter string
		sort   string
		format string
		style  string
		width  int
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print visible tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "list", false, func(s *session) error {
				if filter != "" {
					parsed, err := domain.ParseFilter(filter)
					if err != nil {
						return err
					}
					s.list.SetFilter(parsed)
				}
				if sort != "" {
					parsed, err := domain.ParseSortMode(sort)
					if err != nil {
						return err
					}
					s.list.SetSort(parsed)
				}
				return export.WriteTasks(opts.stdout, f, s.list.VisibleTasks(), export.RenderOptions{Width: width, Style: style})
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "all, completed, or incomplete (default from config)")
	cmd.Flags().StringVar(&sort, "sort", "", "priority or date (default from config)")
	cmd.Flags().StringVarP(&format, "format", "o", string(export.FormatTable), "table, markdown, json, or yaml")
	cmd.Flags().StringVar(&style, "style", "", "glamour style for table output (dark, light, notty)")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width for table output")
	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := snapshotFormat(format, out)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "export", false, func(s *session) error {
				var encoded bytes.Buffer
				if err := export.WriteSnapshot(&encoded, f, s.list.Export()); err != nil {
					return fmt.Errorf("encode snapshot: %w", err)
				}
				if out == "" || out == "-" {
					if _, err := opts.stdout.Write(encoded.Bytes()); err != nil {
						return fmt.Errorf("write snapshot to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(out, encoded.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "-", "output path (- for stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from --out extension)")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var (
		in     string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace every task with a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(in) == "" {
				return errors.New("--in is required")
			}
			f, err := snapshotFormat(format, in)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), opts, "import", false, func(s *session) error {
				var r io.Reader = os.Stdin
				if in != "-" {
					file, err := os.Open(in)
					if err != nil {
						return fmt.Errorf("open import file: %w", err)
					}
					defer func() {
						_ = file.Close()
					}()
					r = file
				}
				snap, err := export.ReadSnapshot(r, f)
				if err != nil {
					return fmt.Errorf("read snapshot: %w", err)
				}
				if err := s.list.Import(cmd.Context(), snap); err != nil {
					return err
				}
				if err := s.persisted(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(opts.stdout, "imported %d tasks\n", len(snap.Tasks))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "snapshot path (- for stdin)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from --in extension)")
	return cmd
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			res, err := opts.resolve()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(opts.stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(opts.stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(opts.stdout, "config: %s\n", res.configPath)
			_, _ = fmt.Fprintf(opts.stdout, "data_dir: %s\n", res.paths.DataDir)
			_, _ = fmt.Fprintf(opts.stdout, "log_dir: %s\n", res.paths.LogDir)
			_, _ = fmt.Fprintf(opts.stdout, "db: %s\n", res.cfg.Storage.Path)
			_, _ = fmt.Fprintf(opts.stdout, "backend: %s\n", res.cfg.Storage.Backend)
			_, _ = fmt.Fprintf(opts.stdout, "key: %s\n", res.cfg.Storage.Key)
			return nil
		},
	}
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	var (
		yes bool
		all bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset deletes every task; pass --yes to confirm")
			}
			return withSession(cmd.Context(), opts, "reset", false, func(s *session) error {
				keys := []string{s.list.StorageKey()}
				if all {
					stored, err := s.store.Keys(cmd.Context())
					if err != nil {
						return fmt.Errorf("list stored keys: %w", err)
					}
					keys = stored
				}
				for _, key := range keys {
					if err := s.store.Delete(cmd.Context(), key); err != nil {
						return fmt.Errorf("delete %q: %w", key, err)
					}
					_, _ = fmt.Fprintf(opts.stdout, "cleared %s\n", key)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	cmd.Flags().BoolVar(&all, "all", false, "delete every stored key, not just the task list")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print completion counts and when the list was last saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, "stats", false, func(s *session) error {
				key := s.list.StorageKey()
				saved, ok, err := s.store.UpdatedAt(cmd.Context(), key)
				if err != nil {
					return fmt.Errorf("read %q updated_at: %w", key, err)
				}
				stats := s.list.Stats()
				_, _ = fmt.Fprintf(opts.stdout, "key: %s\n", key)
				_, _ = fmt.Fprintf(opts.stdout, "total: %d\n", stats.Total)
				_, _ = fmt.Fprintf(opts.stdout, "done: %d\n", stats.Completed)
				_, _ = fmt.Fprintf(opts.stdout, "remaining: %d\n", stats.Remaining)
				_, _ = fmt.Fprintf(opts.stdout, "saved: %s\n", savedLabel(saved, ok))
				return nil
			})
		},
	}
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			res, err := opts.resolve()
			if err != nil {
				return err
			}
			wrote, err := config.WriteDefault(res.configPath, res.defaults)
			if err != nil {
				return err
			}
			if wrote {
				_, _ = fmt.Fprintf(opts.stdout, "wrote %s\n", res.configPath)
			} else {
				_, _ = fmt.Fprintf(opts.stdout, "kept existing %s\n", res.configPath)
			}
			return nil
		},
	}
}

// parseTaskID parses a positive task id argument.
func parseTaskID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

// savedLabel renders a last-write time. Rows written before timestamps were
// recorded have a zero time.
func savedLabel(at time.Time, ok bool) string {
	switch {
	case !ok:
		return "never"
	case at.IsZero():
		return "unknown"
	default:
		return at.UTC().Format(time.RFC3339)
	}
}

// snapshotFormat picks the snapshot codec from an explicit flag or the path.
func snapshotFormat(raw, path string) (export.Format, error) {
	if strings.TrimSpace(raw) == "" {
		return export.FormatForPath(path), nil
	}
	f, err := export.ParseFormat(raw)
	if err != nil {
		return "", err
	}
	if f != export.FormatJSON && f != export.FormatYAML {
		return "", fmt.Errorf("%w for snapshots: %s", export.ErrUnsupportedFormat, f)
	}
	return f, nil
}
