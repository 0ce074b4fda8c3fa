package entity

// CalendarEvent is one event as returned by GET /events/calendar.
type CalendarEvent struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	EventType     *string    `json:"event_type,omitempty"`
	StartDatetime Timestamp  `json:"start_datetime"`
	EndDatetime   *Timestamp `json:"end_datetime,omitempty"`
	LocationCity  *string    `json:"location_city,omitempty"`
	IsRegistered  bool       `json:"is_registered"`
}

type CalendarResponse struct {
	Events []CalendarEvent `json:"events"`
	Month  int             `json:"month"`
	Year   int             `json:"year"`
}

// DayCell is a single day of a rendered month grid.
type DayCell struct {
	Day             int             `json:"day"`
	IsToday         bool            `json:"is_today"`
	HasEvents       bool            `json:"has_events"`
	HasRegistration bool            `json:"has_registration"`
	Events          []CalendarEvent `json:"events"`
	Indicators      []CalendarEvent `json:"indicators"`
	Overflow        int             `json:"overflow"`
	OverflowLabel   string          `json:"overflow_label,omitempty"`
}

type MonthGrid struct {
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	DaysInMonth  int       `json:"days_in_month"`
	FirstWeekday int       `json:"first_weekday"`
	LeadingBlank int       `json:"leading_blank"`
	Days         []DayCell `json:"days"`
}

// CalendarSnapshot is what a calendar view exposes to its owner.
// Grid is nil while a fetch is in flight.
type CalendarSnapshot struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Loading bool       `json:"loading"`
	Error   string     `json:"error,omitempty"`
	Grid    *MonthGrid `json:"grid,omitempty"`
}

type GotoMonthRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}
