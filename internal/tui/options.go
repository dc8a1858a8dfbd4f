package tui

import (
	"context"

	"github.com/atotto/clipboard"
)

// KeyConfig carries user key overrides from config.
type KeyConfig struct {
	Add    string
	Toggle string
	Remove string
	Filter string
	Sort   string
	Copy   string
}

// ViewConfig toggles optional view behavior.
type ViewConfig struct {
	ConfirmRemove bool
	ShowStats     bool
}

// DefaultViewConfig returns the view defaults.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{ConfirmRemove: true, ShowStats: true}
}

type Option func(*Model)

func WithViewConfig(cfg ViewConfig) Option {
	return func(m *Model) {
		m.confirmRemove = cfg.ConfirmRemove
		m.showStats = cfg.ShowStats
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard overrides how task text is copied.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyToClipboard = write
		}
	}
}

func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// WithContext sets the context passed to service mutations.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}
