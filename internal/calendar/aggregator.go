// Month grid construction: day counts, weekday offsets and per-day event buckets.
package calendar

import (
	"fmt"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

// MaxIndicators is the number of event markers drawn in one day cell.
const MaxIndicators = 3

// DaysInMonth reads back day 0 of the following month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the grid column of day 1, Sunday = 0.
func FirstWeekdayOfMonth(year, month int) int {
	return int(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// EventsForDay filters events whose start falls on (year, month, day) in loc.
func EventsForDay(events []entity.CalendarEvent, year, month, day int, loc *time.Location) []entity.CalendarEvent {
	var out []entity.CalendarEvent
	for _, ev := range events {
		y, m, d := ev.StartDatetime.In(loc).Date()
		if y == year && int(m) == month && d == day {
			out = append(out, ev)
		}
	}
	return out
}

func IsToday(year, month, day int, now time.Time) bool {
	y, m, d := now.Date()
	return y == year && int(m) == month && d == day
}

func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return entity.ErrInvalidMonth
	}
	if year <= 0 {
		return entity.ErrInvalidYear
	}
	return nil
}

// BuildMonth buckets events into day cells using local dates in loc.
func BuildMonth(year, month int, events []entity.CalendarEvent, now time.Time, loc *time.Location) *entity.MonthGrid {
	days := DaysInMonth(year, month)
	first := FirstWeekdayOfMonth(year, month)
	localNow := now.In(loc)

	grid := &entity.MonthGrid{
		Year:         year,
		Month:        month,
		DaysInMonth:  days,
		FirstWeekday: first,
		LeadingBlank: first,
		Days:         make([]entity.DayCell, 0, days),
	}

	for day := 1; day <= days; day++ {
		grid.Days = append(grid.Days, buildDay(year, month, day, events, localNow, loc))
	}
	return grid
}

func buildDay(year, month, day int, events []entity.CalendarEvent, now time.Time, loc *time.Location) entity.DayCell {
	bucket := EventsForDay(events, year, month, day, loc)

	cell := entity.DayCell{
		Day:        day,
		IsToday:    IsToday(year, month, day, now),
		HasEvents:  len(bucket) > 0,
		Events:     bucket,
		Indicators: bucket,
	}
	if cell.Events == nil {
		cell.Events = []entity.CalendarEvent{}
		cell.Indicators = []entity.CalendarEvent{}
	}

	for _, ev := range bucket {
		if ev.IsRegistered {
			cell.HasRegistration = true
			break
		}
	}

	if len(bucket) > MaxIndicators {
		cell.Indicators = bucket[:MaxIndicators]
		cell.Overflow = len(bucket) - MaxIndicators
		cell.OverflowLabel = fmt.Sprintf("+%d", cell.Overflow)
	}
	return cell
}
