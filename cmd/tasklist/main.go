package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/tasklist/internal/adapters/storage/memory"
	"github.com/evanschultz/tasklist/internal/adapters/storage/sqlite"
	"github.com/evanschultz/tasklist/internal/app"
	"github.com/evanschultz/tasklist/internal/config"
	"github.com/evanschultz/tasklist/internal/platform"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is stamped at build time; "dev" enables dev-mode paths by default.
var version = "dev"

// program is the part of *tea.Program the CLI runs, swapped in tests.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program for a model.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// clipboardWriter is swapped in tests; nil keeps the tui default.
var clipboardWriter func(string) error

// main runs the command tree through fang and exits non-zero on failure.
func main() {
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes the command tree without fang styling.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SilenceErrors = true
	root.SilenceUsage = true
	return root.ExecuteContext(ctx)
}

// rootOptions carries persistent flag values.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	ephemeral  bool

	stdout io.Writer
	stderr io.Writer
}

// newRootCommand builds the command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TASKLIST_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TASKLIST_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:     "tasklist",
		Short:   "Track team tasks by priority from the terminal",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	flags.BoolVar(&opts.ephemeral, "ephemeral", false, "keep tasks in memory only")

	root.AddCommand(
		newAddCommand(opts),
		newRemoveCommand(opts),
		newToggleCommand(opts),
		newListCommand(opts),
		newStatsCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newPathsCommand(opts),
		newResetCommand(opts),
		newInitCommand(opts),
	)
	return root
}

// resolved holds paths and config after flag, env, and file precedence.
type resolved struct {
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
	defaults     config.Config
	cfg          config.Config
}

// resolve applies flag > env > default precedence for config and db paths.
func (o *rootOptions) resolve() (resolved, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
	if err != nil {
		return resolved{}, err
	}
	out := resolved{paths: paths, configPath: o.configPath, dbPath: o.dbPath}
	if out.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TASKLIST_CONFIG")); envPath != "" {
			out.configPath = envPath
		} else {
			out.configPath = paths.ConfigPath
		}
	}
	out.dbOverridden = strings.TrimSpace(out.dbPath) != ""
	if !out.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TASKLIST_DB_PATH")); envPath != "" {
			out.dbPath = envPath
			out.dbOverridden = true
		} else {
			out.dbPath = paths.DBPath
		}
	}

	out.defaults = config.Default(out.dbPath)
	cfg, err := config.Load(out.configPath, out.defaults)
	if err != nil {
		return resolved{}, fmt.Errorf("load config %q: %w", out.configPath, err)
	}
	if out.dbOverridden {
		cfg.Storage.Path = out.dbPath
	}
	if o.ephemeral {
		cfg.Storage.Backend = config.StorageBackendMemory
	}
	out.cfg = cfg
	return out, nil
}

// kvStore is the storage surface commands need beyond app.Store.
type kvStore interface {
	app.Store
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// session is one command's opened runtime: logger, storage, and loaded list.
type session struct {
	resolved
	logger *runtimeLogger
	store  kvStore
	list   *app.TaskList
	closes []func() error
}

// openSession resolves config, opens storage, and loads the task list.
func (o *rootOptions) openSession(ctx context.Context, command string, quietConsole bool) (*session, error) {
	res, err := o.resolve()
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(o.stderr, o.appName, o.devMode, res.cfg.Logging, res.paths.LogDir, time.Now, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if quietConsole {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the list is active.
		logger.SetConsoleEnabled(false)
	}
	s := &session{resolved: res, logger: logger}
	s.closes = append(s.closes, logger.Close)

	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", res.configPath, "data_dir", res.paths.DataDir, "db_path", res.dbPath)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	switch res.cfg.Storage.Backend {
	case config.StorageBackendMemory:
		logger.Debug("using in-memory storage")
		s.store = memory.New()
	default:
		logger.Debug("opening sqlite repository", "db_path", res.cfg.Storage.Path)
		repo, err := sqlite.Open(res.cfg.Storage.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", res.cfg.Storage.Path, "err", err)
			_ = s.Close()
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		s.store = repo
		s.closes = append([]func() error{repo.Close}, s.closes...)
	}

	s.list = app.NewTaskList(s.store,
		app.WithLogger(logger),
		app.WithStorageKey(res.cfg.Storage.Key),
		app.WithDefaultFilter(res.cfg.Filter()),
		app.WithDefaultSort(res.cfg.SortMode()),
	)
	if err := s.list.Load(ctx); err != nil {
		logger.Error("task list load failed", "key", res.cfg.Storage.Key, "err", err)
		_ = s.Close()
		return nil, fmt.Errorf("load task list: %w", err)
	}
	s.list.Subscribe(func(ev app.Event) {
		logger.Debug("task list event", "kind", ev.Kind, "task_id", ev.TaskID)
	})
	return s, nil
}

// persisted reports a write failure recorded by the last mutation.
func (s *session) persisted() error {
	if err := s.list.PersistErr(); err != nil {
		return fmt.Errorf("save task list: %w", err)
	}
	return nil
}

// Close releases storage and log sinks in order.
func (s *session) Close() error {
	var errs []error
	for _, closeFn := range s.closes {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// parseBoolEnv reads a boolean env var. ok is false when it is unset or unparsable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
