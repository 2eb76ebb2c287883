package services

import "time"

// Assignment status labels as shown on the progress report.
const (
	StatusCompleted  = "Completed"
	StatusOverdue    = "Overdue"
	StatusInProgress = "In Progress"
	StatusNotStarted = "Not Started"
)

// AssignmentStatus classifies a training assignment from its completion
// counts and due date. A module with no lessons can never be completed, so
// it reports Not Started (or Overdue once the due date passes).
func AssignmentStatus(completed, total int, dueDate *time.Time, now time.Time) string {
	if total > 0 && completed >= total {
		return StatusCompleted
	}
	if dueDate != nil && now.After(*dueDate) {
		return StatusOverdue
	}
	if completed > 0 && completed < total {
		return StatusInProgress
	}
	return StatusNotStarted
}

// CompletionPercent rounds down to whole percent. Zero lessons means zero
// percent rather than a divide by zero.
func CompletionPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return completed * 100 / total
}
