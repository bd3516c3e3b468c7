package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeClock canonicalizes a stored time-of-day value to zero-padded
// HH:MM. Raw values may carry seconds ("09:30:00") or lack padding ("9:30");
// only the first two colon groups are kept. Unparseable values return
// ok=false and callers drop them: a corrupt stored time must err toward
// showing a slot as available rather than falsely blocking it.
func NormalizeClock(raw string) (string, bool) {
	hour, minute, ok := splitClock(raw)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func splitClock(raw string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
