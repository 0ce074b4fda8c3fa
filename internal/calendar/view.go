package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/sirupsen/logrus"
)

// EventSource loads one month of events from the backend.
type EventSource interface {
	CalendarEvents(ctx context.Context, year, month int) (*entity.CalendarResponse, error)
}

// View is the per-session calendar state: the displayed month and its events.
type View struct {
	mu     sync.Mutex
	source EventSource
	loc    *time.Location
	now    func() time.Time
	log    *logrus.Entry

	cursor  MonthCursor
	events  []entity.CalendarEvent
	loading bool
	lastErr string
	gen     uint64
	closed  bool
}

func NewView(source EventSource, loc *time.Location, start MonthCursor, log *logrus.Entry) *View {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &View{
		source: source,
		loc:    loc,
		now:    time.Now,
		log:    log,
		cursor: start,
	}
}

// WithClock replaces the time source used for the today marker.
func (v *View) WithClock(now func() time.Time) *View {
	v.mu.Lock()
	v.now = now
	v.mu.Unlock()
	return v
}

func (v *View) Cursor() MonthCursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// Load fetches the current month, replacing whatever was shown before.
func (v *View) Load(ctx context.Context) entity.CalendarSnapshot {
	snap, _ := v.move(ctx, nil)
	return snap
}

// Next and Prev refuse to leave the representable range; the cursor stays put.
func (v *View) Next(ctx context.Context) (entity.CalendarSnapshot, error) {
	return v.move(ctx, MonthCursor.Next)
}

func (v *View) Prev(ctx context.Context) (entity.CalendarSnapshot, error) {
	return v.move(ctx, MonthCursor.Prev)
}

func (v *View) Goto(ctx context.Context, year, month int) (entity.CalendarSnapshot, error) {
	if err := ValidateMonth(year, month); err != nil {
		return v.Snapshot(), err
	}
	target := MonthCursor{Year: year, Month: month}
	return v.move(ctx, func(MonthCursor) MonthCursor { return target })
}

// Retry refetches the current month after a failure.
func (v *View) Retry(ctx context.Context) entity.CalendarSnapshot {
	return v.Load(ctx)
}

func (v *View) move(ctx context.Context, step func(MonthCursor) MonthCursor) (entity.CalendarSnapshot, error) {
	gen, cursor, ok, err := v.begin(step)
	if err != nil {
		return v.Snapshot(), err
	}
	if !ok {
		return v.Snapshot(), nil
	}
	resp, err := v.source.CalendarEvents(ctx, cursor.Year, cursor.Month)
	v.finish(gen, cursor, resp, err)
	return v.Snapshot(), nil
}

// begin moves the cursor and drops the previous month's events.
func (v *View) begin(step func(MonthCursor) MonthCursor) (uint64, MonthCursor, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, v.cursor, false, nil
	}
	if step != nil {
		target := step(v.cursor)
		if err := ValidateMonth(target.Year, target.Month); err != nil {
			return 0, v.cursor, false, err
		}
		v.cursor = target
	}
	v.gen++
	v.events = nil
	v.loading = true
	v.lastErr = ""
	return v.gen, v.cursor, true, nil
}

func (v *View) finish(gen uint64, cursor MonthCursor, resp *entity.CalendarResponse, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || gen != v.gen {
		v.log.WithFields(logrus.Fields{
			"year":  cursor.Year,
			"month": cursor.Month,
		}).Debug("Discarding calendar response for a month no longer displayed")
		return
	}

	v.loading = false
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"year":  cursor.Year,
			"month": cursor.Month,
		}).Errorf("Failed to load calendar events: %v", err)
		v.events = []entity.CalendarEvent{}
		v.lastErr = fmt.Sprintf("failed to load events: %v", err)
		return
	}

	if resp == nil || resp.Events == nil {
		v.events = []entity.CalendarEvent{}
		return
	}
	v.events = resp.Events
}

// Snapshot renders the current state. No grid is produced while loading.
func (v *View) Snapshot() entity.CalendarSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := entity.CalendarSnapshot{
		Year:    v.cursor.Year,
		Month:   v.cursor.Month,
		Loading: v.loading,
		Error:   v.lastErr,
	}
	if v.loading || v.events == nil {
		return snap
	}
	snap.Grid = BuildMonth(v.cursor.Year, v.cursor.Month, v.events, v.now(), v.loc)
	return snap
}

// Close makes every later response a no-op.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.gen++
	v.mu.Unlock()
}
