package tui

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds the list screen bindings and feeds the help bubble.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	addTask    key.Binding
	toggle     key.Binding
	remove     key.Binding
	filter     key.Binding
	sort       key.Binding
	copyText   key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		addTask:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add task")),
		toggle:     key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space/x", "toggle done")),
		remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter")),
		sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		copyText:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy text")),
	}
}

// applyConfig overrides configurable bindings. Blank values keep defaults.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addTask, cfg.Add, "n", "add task")
	configureBinding(&k.remove, cfg.Remove, "d", "remove")
	configureBinding(&k.filter, cfg.Filter, "f", "cycle filter")
	configureBinding(&k.sort, cfg.Sort, "s", "cycle sort")
	configureBinding(&k.copyText, cfg.Copy, "y", "copy text")
	if strings.TrimSpace(cfg.Toggle) != "" {
		configureBinding(&k.toggle, cfg.Toggle, "space", "toggle done")
		// x stays as a secondary toggle unless another action claims it.
		if keys := k.toggle.Keys(); !slices.Contains(keys, "x") && !k.claims("x") {
			k.toggle.SetKeys(append(keys, "x")...)
		}
	}
}

// claims reports whether a configurable action other than toggle uses keyName.
func (k keyMap) claims(keyName string) bool {
	for _, b := range []key.Binding{k.addTask, k.remove, k.filter, k.sort, k.copyText} {
		if slices.Contains(b.Keys(), keyName) {
			return true
		}
	}
	return false
}

// configureBinding replaces a binding's keys and help from one config value.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys maps a config key string to matcher keys and help text.
// Uppercase single runes also match their shift+ form; "space" matches " ".
func parseBindingKeys(raw, fallback string) ([]string, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = fallback
	}
	if strings.EqualFold(value, "space") || value == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + string(unicode.ToLower(r))}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

// ShortHelp lists the bindings shown in the collapsed help line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.addTask, k.toggle, k.remove, k.filter, k.sort, k.toggleHelp, k.quit}
}

// FullHelp groups every binding for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.toggle, k.remove, k.copyText},
		{k.moveUp, k.moveDown, k.filter, k.sort},
		{k.toggleHelp, k.quit},
	}
}
