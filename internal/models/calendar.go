package models

import "time"

// CalendarDay is one bookable day shown on the scheduling page. Holidays
// stay in the sequence so the page can render them disabled instead of
// silently dropping them.
type CalendarDay struct {
	Date      time.Time `json:"date"`
	IsHoliday bool      `json:"is_holiday"`
}

func (d CalendarDay) Key() string {
	return d.Date.Format("2006-01-02")
}

func (d CalendarDay) Weekday() time.Weekday {
	return d.Date.Weekday()
}

// Label is the human form shown on a day button, e.g. "Tue, Nov 4".
func (d CalendarDay) Label() string {
	return d.Date.Format("Mon, Jan 2")
}

// SlotState is the render state of one time slot, recomputed on every
// reconciliation and never persisted.
type SlotState string

const (
	SlotAvailable     SlotState = "available"
	SlotBookedByOther SlotState = "booked"
	SlotBookedByMe    SlotState = "mine"
)

// SlotView is one entry of the rendered slot panel.
type SlotView struct {
	Time  string    `json:"time"`
	State SlotState `json:"state"`
}

// BookedSlots is the per-day reconciliation snapshot: every booked time on
// the day, and the subset owned by the current actor. It is always replaced
// wholesale, never merged.
type BookedSlots struct {
	Date string
	All  map[string]struct{}
	Mine map[string]struct{}
}

func NewBookedSlots(date string) *BookedSlots {
	return &BookedSlots{
		Date: date,
		All:  make(map[string]struct{}),
		Mine: make(map[string]struct{}),
	}
}
