package schedule

import (
	"time"

	"apptbook/internal/models"
)

// Generator produces the bookable calendar days shown on the scheduling
// page: the next WeeksAhead weeks' worth of the two operating weekdays,
// with statically configured holidays flagged but kept visible.
type Generator struct {
	WeeksAhead int
	Weekdays   [2]time.Weekday
	holidays   map[string]struct{}
}

func NewGenerator(weeksAhead int, weekdays [2]time.Weekday, holidays []string) *Generator {
	if weeksAhead <= 0 {
		weeksAhead = models.DefaultWeeksAhead
	}
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return &Generator{WeeksAhead: weeksAhead, Weekdays: weekdays, holidays: set}
}

// Upcoming returns exactly WeeksAhead*2 days in ascending order, scanning
// forward one day at a time from now until the quota is filled. Each day is
// anchored at 12:00 local time so later date formatting cannot slip across
// a timezone boundary.
func (g *Generator) Upcoming(now time.Time) []models.CalendarDay {
	needed := g.WeeksAhead * 2
	out := make([]models.CalendarDay, 0, needed)

	day := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	for len(out) < needed {
		dow := day.Weekday()
		if dow == g.Weekdays[0] || dow == g.Weekdays[1] {
			key := day.Format("2006-01-02")
			_, holiday := g.holidays[key]
			out = append(out, models.CalendarDay{Date: day, IsHoliday: holiday})
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// IsHoliday reports whether the canonical YYYY-MM-DD string is excluded.
func (g *Generator) IsHoliday(dateKey string) bool {
	_, ok := g.holidays[dateKey]
	return ok
}
