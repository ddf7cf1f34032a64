package model

import (
	"strings"
	"time"
)

// Task represents a single item on the list.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Priority    Priority  `json:"priority"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Toggle flips the completion flag.
func (t *Task) Toggle() {
	t.IsCompleted = !t.IsCompleted
}

// SameKey reports whether the task has the given title (case-insensitive) in the given category.
func (t Task) SameKey(title, category string) bool {
	return t.Category == category && strings.EqualFold(t.Title, title)
}

// Priority is a free-form label; the store keeps whatever the caller passes.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the labels offered by the input forms, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority returns the known priority matching raw, ignoring case and spaces.
func ParsePriority(raw string) (Priority, bool) {
	value := Priority(strings.ToLower(strings.TrimSpace(raw)))
	for _, p := range Priorities {
		if p == value {
			return p, true
		}
	}
	return "", false
}
