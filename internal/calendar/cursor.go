package calendar

import "time"

// MonthCursor points at one displayed month.
type MonthCursor struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func CursorFor(t time.Time) MonthCursor {
	return MonthCursor{Year: t.Year(), Month: int(t.Month())}
}

func (c MonthCursor) Next() MonthCursor {
	if c.Month == 12 {
		return MonthCursor{Year: c.Year + 1, Month: 1}
	}
	return MonthCursor{Year: c.Year, Month: c.Month + 1}
}

func (c MonthCursor) Prev() MonthCursor {
	if c.Month == 1 {
		return MonthCursor{Year: c.Year - 1, Month: 12}
	}
	return MonthCursor{Year: c.Year, Month: c.Month - 1}
}
