package services

import (
	"testing"
	"time"
)

func TestAssignmentStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	tests := []struct {
		name      string
		completed int
		total     int
		dueDate   *time.Time
		expected  string
	}{
		{
			name:      "All lessons done",
			completed: 5,
			total:     5,
			expected:  StatusCompleted,
		},
		{
			name:      "Completed trumps a past due date",
			completed: 5,
			total:     5,
			dueDate:   &past,
			expected:  StatusCompleted,
		},
		{
			name:      "Past due with work remaining",
			completed: 3,
			total:     5,
			dueDate:   &past,
			expected:  StatusOverdue,
		},
		{
			name:      "Past due with nothing started",
			completed: 0,
			total:     5,
			dueDate:   &past,
			expected:  StatusOverdue,
		},
		{
			name:      "Some progress before the due date",
			completed: 2,
			total:     5,
			dueDate:   &future,
			expected:  StatusInProgress,
		},
		{
			name:      "Some progress with no due date",
			completed: 1,
			total:     4,
			expected:  StatusInProgress,
		},
		{
			name:      "Nothing done yet",
			completed: 0,
			total:     5,
			dueDate:   &future,
			expected:  StatusNotStarted,
		},
		{
			name:      "Empty module is never completed",
			completed: 0,
			total:     0,
			expected:  StatusNotStarted,
		},
		{
			name:      "Empty module past due",
			completed: 0,
			total:     0,
			dueDate:   &past,
			expected:  StatusOverdue,
		},
		{
			name:      "Completions without lessons stay Not Started",
			completed: 3,
			total:     0,
			expected:  StatusNotStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignmentStatus(tt.completed, tt.total, tt.dueDate, now)
			if got != tt.expected {
				t.Errorf("AssignmentStatus(%d, %d) = %q, expected %q", tt.completed, tt.total, got, tt.expected)
			}
		})
	}
}

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		completed int
		total     int
		expected  int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 66},
		{5, 5, 100},
		{7, 5, 100}, // clamp stray data
	}

	for _, tt := range tests {
		if got := CompletionPercent(tt.completed, tt.total); got != tt.expected {
			t.Errorf("CompletionPercent(%d, %d) = %d, expected %d", tt.completed, tt.total, got, tt.expected)
		}
	}
}
