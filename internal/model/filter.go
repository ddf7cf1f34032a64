package model

import "strings"

// Filter selects a read-only projection of the list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists every mode in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

// ParseFilter maps raw to a filter mode. Anything unknown falls back to FilterAll.
func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Matches reports whether the task belongs to the projection.
func (f Filter) Matches(task Task) bool {
	switch f {
	case FilterPending:
		return !task.IsCompleted
	case FilterCompleted:
		return task.IsCompleted
	default:
		return true
	}
}
