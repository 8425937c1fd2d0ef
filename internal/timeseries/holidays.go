package timeseries

import "time"

// Fixed retail holidays observed by the feature engine. Sales patterns around
// these dates differ enough from regular weekends to warrant a flag of their
// own.
var holidays = map[string]struct{}{
	"2024-01-01": {}, // New Year's Day
	"2024-01-26": {}, // Republic Day
	"2024-08-15": {}, // Independence Day
	"2024-10-02": {}, // Gandhi Jayanti
	"2024-12-25": {}, // Christmas
}

// IsHoliday reports whether the date falls on an observed holiday.
func IsHoliday(t time.Time) bool {
	_, ok := holidays[t.Format("2006-01-02")]
	return ok
}
