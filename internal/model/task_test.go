package model

import "testing"

func TestParseFilter(t *testing.T) {
	tests := []struct {
		raw  string
		want Filter
	}{
		{"all", FilterAll},
		{"pending", FilterPending},
		{"completed", FilterCompleted},
		{" Completed ", FilterCompleted},
		{"", FilterAll},
		{"done", FilterAll},
	}
	for _, tt := range tests {
		if got := ParseFilter(tt.raw); got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	open := Task{ID: "a"}
	done := Task{ID: "b", IsCompleted: true}

	if !FilterAll.Matches(open) || !FilterAll.Matches(done) {
		t.Fatalf("all must match every task")
	}
	if !FilterPending.Matches(open) || FilterPending.Matches(done) {
		t.Fatalf("pending must match only open tasks")
	}
	if FilterCompleted.Matches(open) || !FilterCompleted.Matches(done) {
		t.Fatalf("completed must match only done tasks")
	}
}

func TestTaskToggleAndSameKey(t *testing.T) {
	task := Task{Title: "Buy milk", Category: "Shopping"}
	task.Toggle()
	if !task.IsCompleted {
		t.Fatalf("expected completed after first toggle")
	}
	task.Toggle()
	if task.IsCompleted {
		t.Fatalf("expected pending after second toggle")
	}

	if !task.SameKey("buy MILK", "Shopping") {
		t.Errorf("title comparison must ignore case")
	}
	if task.SameKey("Buy milk", "shopping") {
		t.Errorf("category comparison must be exact")
	}
}

func TestParsePriorityAndCategory(t *testing.T) {
	if p, ok := ParsePriority(" HIGH "); !ok || p != PriorityHigh {
		t.Fatalf("ParsePriority(HIGH) = %q, %t", p, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Fatalf("unexpected priority match")
	}
	if c, ok := MatchCategory(DefaultCategories, "shopping"); !ok || c != "Shopping" {
		t.Fatalf("MatchCategory(shopping) = %q, %t", c, ok)
	}
	if _, ok := MatchCategory(DefaultCategories, " "); ok {
		t.Fatalf("blank category must not match")
	}
}
