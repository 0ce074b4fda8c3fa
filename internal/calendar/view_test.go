package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	calls []MonthCursor
	fn    func(year, month int) (*entity.CalendarResponse, error)
}

func (f *fakeSource) CalendarEvents(_ context.Context, year, month int) (*entity.CalendarResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, MonthCursor{Year: year, Month: month})
	f.mu.Unlock()
	return f.fn(year, month)
}

func monthOf(year, month int, events ...entity.CalendarEvent) *entity.CalendarResponse {
	return &entity.CalendarResponse{Year: year, Month: month, Events: events}
}

func TestViewLoadAndNavigate(t *testing.T) {
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		return monthOf(year, month, event("x", time.Date(year, time.Month(month), 10, 12, 0, 0, 0, time.UTC), false)), nil
	}}
	v := NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 12}, nil)

	snap := v.Load(context.Background())
	require.NotNil(t, snap.Grid)
	assert.False(t, snap.Loading)
	assert.True(t, snap.Grid.Days[9].HasEvents)

	snap, err := v.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2026, snap.Year)
	assert.Equal(t, 1, snap.Month)

	snap, err = v.Prev(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2025, snap.Year)
	assert.Equal(t, 12, snap.Month)

	assert.Equal(t, []MonthCursor{{2025, 12}, {2026, 1}, {2025, 12}}, src.calls)
}

func TestViewFailureLeavesEmptyMonth(t *testing.T) {
	fail := true
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return monthOf(year, month, event("x", time.Date(year, time.Month(month), 3, 12, 0, 0, 0, time.UTC), true)), nil
	}}
	v := NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil)

	snap := v.Load(context.Background())
	require.NotNil(t, snap.Grid)
	assert.Contains(t, snap.Error, "connection refused")
	for _, cell := range snap.Grid.Days {
		assert.False(t, cell.HasEvents)
	}

	// no automatic retry
	assert.Len(t, src.calls, 1)

	fail = false
	snap = v.Retry(context.Background())
	assert.Empty(t, snap.Error)
	assert.True(t, snap.Grid.Days[2].HasRegistration)
	assert.Len(t, src.calls, 2)
}

func TestViewShowsLoadingWithoutStaleGrid(t *testing.T) {
	var v *View
	var during entity.CalendarSnapshot
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		if month == 4 {
			during = v.Snapshot()
		}
		return monthOf(year, month, event("m", time.Date(year, time.Month(month), 1, 12, 0, 0, 0, time.UTC), false)), nil
	}}
	v = NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil)

	v.Load(context.Background())
	v.Next(context.Background())

	assert.True(t, during.Loading)
	assert.Nil(t, during.Grid)
	assert.Equal(t, 4, during.Month)
}

func TestViewDiscardsResponseForPreviousMonth(t *testing.T) {
	var v *View
	src := &fakeSource{}
	src.fn = func(year, month int) (*entity.CalendarResponse, error) {
		if month == 3 {
			// user navigates away while March is still in flight
			v.Next(context.Background())
			return monthOf(year, month, event("march", time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC), false)), nil
		}
		return monthOf(year, month, event("april", time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC), false)), nil
	}
	v = NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil)

	snap := v.Load(context.Background())

	assert.Equal(t, 4, snap.Month)
	require.NotNil(t, snap.Grid)
	assert.True(t, snap.Grid.Days[6].HasEvents)
	assert.False(t, snap.Grid.Days[4].HasEvents)
}

func TestViewGotoValidates(t *testing.T) {
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		return monthOf(year, month), nil
	}}
	v := NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil)

	_, err := v.Goto(context.Background(), 2025, 13)
	assert.ErrorIs(t, err, entity.ErrInvalidMonth)
	assert.Empty(t, src.calls)

	snap, err := v.Goto(context.Background(), 2027, 2)
	require.NoError(t, err)
	assert.Equal(t, 2027, snap.Year)
	assert.Equal(t, 28, snap.Grid.DaysInMonth)
}

func TestViewPrevStopsAtFirstYear(t *testing.T) {
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		return monthOf(year, month), nil
	}}
	v := NewView(src, time.UTC, MonthCursor{Year: 1, Month: 1}, nil)
	v.Load(context.Background())

	snap, err := v.Prev(context.Background())
	assert.ErrorIs(t, err, entity.ErrInvalidYear)
	assert.Equal(t, MonthCursor{Year: 1, Month: 1}, v.Cursor())
	assert.Equal(t, 1, snap.Year)
	assert.NotNil(t, snap.Grid)
	assert.Equal(t, []MonthCursor{{1, 1}}, src.calls)
}

func TestViewTodayUsesClock(t *testing.T) {
	src := &fakeSource{fn: func(year, month int) (*entity.CalendarResponse, error) {
		return monthOf(year, month), nil
	}}
	v := NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil).
		WithClock(func() time.Time { return time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC) })

	snap := v.Load(context.Background())
	for _, cell := range snap.Grid.Days {
		assert.Equal(t, cell.Day == 9, cell.IsToday, "day %d", cell.Day)
	}
}

func TestViewClosedIgnoresResponses(t *testing.T) {
	var v *View
	src := &fakeSource{}
	src.fn = func(year, month int) (*entity.CalendarResponse, error) {
		v.Close()
		return monthOf(year, month, event("x", time.Date(year, time.Month(month), 2, 12, 0, 0, 0, time.UTC), false)), nil
	}
	v = NewView(src, time.UTC, MonthCursor{Year: 2025, Month: 3}, nil)

	snap := v.Load(context.Background())
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Grid)

	v.Next(context.Background())
	assert.Len(t, src.calls, 1)
}
