package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/calendar"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

type calendarService struct {
	backends BackendFactory
	loc      *time.Location
	now      func() time.Time
}

func NewCalendarService(backends BackendFactory, loc *time.Location) CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &calendarService{
		backends: backends,
		loc:      loc,
		now:      time.Now,
	}
}

// Month builds a grid for one month without keeping any state.
func (s *calendarService) Month(ctx context.Context, token string, year, month int) (*entity.MonthGrid, error) {
	if err := calendar.ValidateMonth(year, month); err != nil {
		return nil, err
	}

	resp, err := s.backends(token).CalendarEvents(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	return calendar.BuildMonth(year, month, resp.Events, s.now(), s.loc), nil
}
