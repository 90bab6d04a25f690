package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{day(2024, 4, 1), day(2024, 4, 1)},  // Monday
		{day(2024, 4, 7), day(2024, 4, 1)},  // Sunday
		{day(2024, 3, 1), day(2024, 2, 26)}, // Friday, crosses month
		{day(2025, 1, 1), day(2024, 12, 30)},
		{time.Date(2024, 4, 3, 18, 30, 0, 0, time.UTC), day(2024, 4, 1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in), tt.in.String())
	}
}

func TestMonthEnd(t *testing.T) {
	assert.Equal(t, day(2024, 2, 29), MonthEnd(day(2024, 2, 10)))
	assert.Equal(t, day(2023, 2, 28), MonthEnd(day(2023, 2, 1)))
	assert.Equal(t, day(2024, 12, 31), MonthEnd(day(2024, 12, 31)))
}

func TestWeekLabel(t *testing.T) {
	tests := []struct {
		anchor time.Time
		want   string
	}{
		{day(2024, 4, 1), "Week 1/Apr 2024"},
		{day(2024, 4, 29), "Week 5/Apr 2024"},
		// 1 Mar 2024 is a Friday in ISO week 9; Monday 4 Mar is week 10
		{day(2024, 3, 4), "Week 2/Mar 2024"},
		// 1 Dec 2024 is a Sunday (ISO week 48); 30 Dec is ISO week 1 of 2025
		{day(2024, 12, 30), "Week -46/Dec 2024"},
		// 1 Jan 2027 is a Friday in ISO week 53 of 2026
		{day(2027, 1, 4), "Week -51/Jan 2027"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekLabel(tt.anchor))
	}
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Sep 2024", MonthLabel(day(2024, 9, 30)))
}
