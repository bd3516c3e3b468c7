package schedule

import "fmt"

// Times generates the slot panel for one day: HH:MM strings from start at
// the given cadence, inclusive of start and exclusive of end. The half-open
// loop condition deliberately admits a final short slot when the interval
// does not divide the window evenly; it must not be "fixed" by rounding.
func Times(start, end string, intervalMinutes int) []string {
	hour, minute, ok := splitClock(start)
	if !ok {
		return nil
	}
	endHour, endMinute, ok := splitClock(end)
	if !ok {
		return nil
	}
	if intervalMinutes <= 0 {
		return nil
	}

	var times []string
	for hour < endHour || (hour == endHour && minute < endMinute) {
		times = append(times, fmt.Sprintf("%02d:%02d", hour, minute))
		minute += intervalMinutes
		for minute >= 60 {
			minute -= 60
			hour++
		}
	}
	return times
}
