package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/tasklist/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

type StorageBackend string

const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendMemory StorageBackend = "memory"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	View    ViewConfig    `toml:"view"`
	Keys    KeyConfig     `toml:"keys"`
}

type StorageConfig struct {
	Backend StorageBackend `toml:"backend"`
	Path    string         `toml:"path"`
	Key     string         `toml:"key"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ViewConfig struct {
	DefaultFilter string `toml:"default_filter"` // all | completed | incomplete
	DefaultSort   string `toml:"default_sort"`   // priority | date
	ConfirmRemove bool   `toml:"confirm_remove"`
	ShowStats     bool   `toml:"show_stats"`
}

type KeyConfig struct {
	Add    string `toml:"add"`
	Toggle string `toml:"toggle"`
	Remove string `toml:"remove"`
	Filter string `toml:"filter"`
	Sort   string `toml:"sort"`
	Copy   string `toml:"copy"`
}

func Default(dbPath string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: StorageBackendSQLite,
			Path:    dbPath,
			Key:     "tasks",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tasklist/log",
			},
		},
		View: ViewConfig{
			DefaultFilter: string(domain.FilterAll),
			DefaultSort:   string(domain.SortPriority),
			ConfirmRemove: true,
			ShowStats:     true,
		},
		Keys: KeyConfig{
			Add:    "n",
			Toggle: "space",
			Remove: "d",
			Filter: "f",
			Sort:   "s",
			Copy:   "y",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for the sqlite backend")
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}

	if _, err := charmLog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if _, err := domain.ParseFilter(c.View.DefaultFilter); err != nil {
		return fmt.Errorf("invalid view.default_filter: %q", c.View.DefaultFilter)
	}
	if _, err := domain.ParseSortMode(c.View.DefaultSort); err != nil {
		return fmt.Errorf("invalid view.default_sort: %q", c.View.DefaultSort)
	}

	return nil
}

// Filter returns the validated default filter, falling back to all.
func (c Config) Filter() domain.Filter {
	f, err := domain.ParseFilter(c.View.DefaultFilter)
	if err != nil {
		return domain.FilterAll
	}
	return f
}

// SortMode returns the validated default sort mode, falling back to priority.
func (c Config) SortMode() domain.SortMode {
	s, err := domain.ParseSortMode(c.View.DefaultSort)
	if err != nil {
		return domain.SortPriority
	}
	return s
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefault writes cfg to path unless a file already exists there.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
