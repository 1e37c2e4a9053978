package genetic

import (
	"fmt"
	"strings"
)

// Calendar describes the weekly grid sessions are placed on. Periods are numbered from 1.
type Calendar struct {
	Days          []string
	PeriodsPerDay int
}

// DefaultCalendar returns a Monday to Friday week with eight periods a day.
func DefaultCalendar() Calendar {
	return Calendar{
		Days:          []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat"},
		PeriodsPerDay: 8,
	}
}

// Validate checks that the grid has at least one slot and no duplicate days.
func (c Calendar) Validate() error {
	if len(c.Days) == 0 {
		return fmt.Errorf("%w: calendar has no days", ErrInvalidConfig)
	}
	if c.PeriodsPerDay < 1 {
		return fmt.Errorf("%w: periods per day must be at least 1", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Days))
	for _, day := range c.Days {
		key := strings.ToLower(strings.TrimSpace(day))
		if key == "" {
			return fmt.Errorf("%w: calendar contains a blank day", ErrInvalidConfig)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate day %q", ErrInvalidConfig, day)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// SlotsPerWeek is the number of (day, period) cells in the grid.
func (c Calendar) SlotsPerWeek() int {
	return len(c.Days) * c.PeriodsPerDay
}

// DayIndex returns the position of day in the week, or -1.
func (c Calendar) DayIndex(day string) int {
	for i, d := range c.Days {
		if strings.EqualFold(d, day) {
			return i
		}
	}
	return -1
}
