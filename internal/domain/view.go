package domain

import (
	"slices"
	"strings"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

var validFilters = []Filter{FilterAll, FilterCompleted, FilterIncomplete}

// Filters returns filters in selector order.
func Filters() []Filter {
	return slices.Clone(validFilters)
}

func ParseFilter(raw string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(validFilters, f) {
		return "", ErrInvalidFilter
	}
	return f, nil
}

func (f Filter) Valid() bool {
	return slices.Contains(validFilters, f)
}

// Matches reports whether a task passes the filter.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// Next cycles to the following filter in selector order.
func (f Filter) Next() Filter {
	idx := slices.Index(validFilters, f)
	return validFilters[(idx+1)%len(validFilters)]
}

// SortMode selects the display order applied after filtering.
type SortMode string

const (
	SortPriority SortMode = "priority"
	SortDate     SortMode = "date"
)

var validSortModes = []SortMode{SortPriority, SortDate}

func SortModes() []SortMode {
	return slices.Clone(validSortModes)
}

func ParseSortMode(raw string) (SortMode, error) {
	s := SortMode(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(validSortModes, s) {
		return "", ErrInvalidSortMode
	}
	return s, nil
}

func (s SortMode) Valid() bool {
	return slices.Contains(validSortModes, s)
}

func (s SortMode) Next() SortMode {
	idx := slices.Index(validSortModes, s)
	return validSortModes[(idx+1)%len(validSortModes)]
}

// Compare orders two tasks for the sort mode. Callers use a stable sort so
// equal-priority tasks keep their storage order.
func (s SortMode) Compare(a, b Task) int {
	if s == SortPriority {
		return a.Priority.Rank() - b.Priority.Rank()
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
