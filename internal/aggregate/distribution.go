package aggregate

import (
	"time"

	"github.com/putzplan/putz/internal/domain"
)

// HourDistribution counts executions per hour of day in loc.
func HourDistribution(execs []domain.Execution, loc *time.Location) [24]int {
	if loc == nil {
		loc = time.UTC
	}
	var out [24]int
	for _, e := range execs {
		out[e.ExecutedAt.In(loc).Hour()]++
	}
	return out
}

// WeekdayDistribution counts executions per weekday in loc. Index 0 is
// Monday, 6 is Sunday.
func WeekdayDistribution(execs []domain.Execution, loc *time.Location) [7]int {
	if loc == nil {
		loc = time.UTC
	}
	var out [7]int
	for _, e := range execs {
		wd := int(e.ExecutedAt.In(loc).Weekday())
		out[(wd+6)%7]++
	}
	return out
}
