package entity

import "time"

// SessionSnapshot is the combined state of one mounted page.
type SessionSnapshot struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	LastSeen      time.Time         `json:"last_seen"`
	Calendar      CalendarSnapshot  `json:"calendar"`
	Notifications IndicatorSnapshot `json:"notifications"`
}
