package services

import (
	"testing"
	"time"

	"github.com/agencydesk/console/models"
)

func TestChallengeWeekStarts(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	weeks := ChallengeWeekStarts(monday)
	if len(weeks) != 8 {
		t.Fatalf("expected 8 week starts, got %d", len(weeks))
	}

	for i, week := range weeks {
		if week.Weekday() != time.Monday {
			t.Errorf("week %d starts on %s, expected Monday", i, week.Weekday())
		}
		if i > 0 {
			gap := week.Sub(weeks[i-1])
			if gap != 7*24*time.Hour {
				t.Errorf("gap between week %d and %d = %s, expected 168h", i-1, i, gap)
			}
		}
	}

	if !weeks[0].Equal(monday) {
		t.Errorf("first week = %s, expected %s", weeks[0], monday)
	}
}

func TestChallengeWeekStartsNormalizesMidweekDates(t *testing.T) {
	thursday := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)
	expected := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	weeks := ChallengeWeekStarts(thursday)
	if !weeks[0].Equal(expected) {
		t.Errorf("first week = %s, expected the Monday of that week %s", weeks[0], expected)
	}
}

func TestCore4DayScore(t *testing.T) {
	tests := []struct {
		name     string
		log      models.Core4Log
		expected int
	}{
		{"Nothing done", models.Core4Log{}, 0},
		{"One category", models.Core4Log{Body: true}, 25},
		{"Two categories", models.Core4Log{Being: true, Business: true}, 50},
		{"Perfect day", models.Core4Log{Body: true, Being: true, Balance: true, Business: true}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Core4DayScore(tt.log); got != tt.expected {
				t.Errorf("Core4DayScore() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func perfectLog(date time.Time) models.Core4Log {
	return models.Core4Log{
		LogDate:  date,
		Body:     true,
		Being:    true,
		Balance:  true,
		Business: true,
	}
}

func TestCore4Streak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		logs     []models.Core4Log
		expected int
	}{
		{
			name:     "No logs",
			logs:     nil,
			expected: 0,
		},
		{
			name:     "Single perfect day",
			logs:     []models.Core4Log{perfectLog(day(10))},
			expected: 1,
		},
		{
			name:     "Three consecutive perfect days",
			logs:     []models.Core4Log{perfectLog(day(8)), perfectLog(day(9)), perfectLog(day(10))},
			expected: 3,
		},
		{
			name:     "Calendar gap breaks the streak",
			logs:     []models.Core4Log{perfectLog(day(6)), perfectLog(day(9)), perfectLog(day(10))},
			expected: 2,
		},
		{
			name: "Partial day breaks the streak",
			logs: []models.Core4Log{
				perfectLog(day(8)),
				{LogDate: day(9), Body: true},
				perfectLog(day(10)),
			},
			expected: 1,
		},
		{
			name: "Latest day partial means no streak",
			logs: []models.Core4Log{
				perfectLog(day(9)),
				{LogDate: day(10), Body: true, Being: true},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Core4Streak(tt.logs); got != tt.expected {
				t.Errorf("Core4Streak() = %d, expected %d", got, tt.expected)
			}
		})
	}
}
