package services

import (
	"time"

	"github.com/agencydesk/console/models"
)

// Core4PointsPerCategory is the score awarded for each completed category on
// a daily log, 100 points for a full day.
const Core4PointsPerCategory = 25

// ChallengeWeekStarts returns the 8 Monday dates framing a challenge cohort:
// a prep week, the 6 program weeks, and the wrap week. The given start date
// is normalized to the Monday of its week.
func ChallengeWeekStarts(start time.Time) []time.Time {
	monday := start
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())

	weeks := make([]time.Time, 8)
	for i := range weeks {
		weeks[i] = monday.AddDate(0, 0, 7*i)
	}
	return weeks
}

// Core4DayScore awards points per completed category.
func Core4DayScore(log models.Core4Log) int {
	score := 0
	if log.Body {
		score += Core4PointsPerCategory
	}
	if log.Being {
		score += Core4PointsPerCategory
	}
	if log.Balance {
		score += Core4PointsPerCategory
	}
	if log.Business {
		score += Core4PointsPerCategory
	}
	return score
}

// Core4Streak counts consecutive perfect days (all four categories true)
// scanning backward from the most recent log. A gap in the calendar or a
// partial day ends the streak. Logs must be sorted by LogDate ascending.
func Core4Streak(logs []models.Core4Log) int {
	streak := 0
	var prev time.Time
	for i := len(logs) - 1; i >= 0; i-- {
		log := logs[i]
		if !(log.Body && log.Being && log.Balance && log.Business) {
			break
		}
		day := log.LogDate.Truncate(24 * time.Hour)
		if streak > 0 && !day.Equal(prev.AddDate(0, 0, -1)) {
			break
		}
		streak++
		prev = day
	}
	return streak
}
