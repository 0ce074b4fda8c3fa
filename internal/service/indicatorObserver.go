package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/database"
	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	observeTimeout    = 5 * time.Second
	observeBufferSize = 256
)

// indicatorObserver journals read-state mutations and forwards every event to
// the broker. Both sinks are optional. Delivery happens on its own goroutine;
// Observe only enqueues.
type indicatorObserver struct {
	journal   database.MutationJournal
	publisher EventPublisher

	mu      sync.RWMutex
	closed  bool
	events  chan entity.IndicatorEvent
	done    chan struct{}
	dropped atomic.Int64
}

func newIndicatorObserver(journal database.MutationJournal, publisher EventPublisher) *indicatorObserver {
	o := &indicatorObserver{
		journal:   journal,
		publisher: publisher,
		events:    make(chan entity.IndicatorEvent, observeBufferSize),
		done:      make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *indicatorObserver) Observe(_ context.Context, ev entity.IndicatorEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return
	}

	select {
	case o.events <- ev:
	default:
		o.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"session_id": ev.SessionID,
			"kind":       ev.Kind,
			"event_id":   ev.ID,
		}).Warn("Indicator event buffer is full, dropping event")
	}
}

func (o *indicatorObserver) run() {
	defer close(o.done)
	for ev := range o.events {
		o.deliver(ev)
	}
}

func (o *indicatorObserver) deliver(ev entity.IndicatorEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), observeTimeout)
	defer cancel()

	entry := logrus.WithFields(logrus.Fields{
		"session_id": ev.SessionID,
		"kind":       ev.Kind,
		"event_id":   ev.ID,
	})

	if o.journal != nil && (ev.Kind == entity.EventMarkRead || ev.Kind == entity.EventMarkAllRead) {
		rec := &entity.MutationRecord{
			Ref:            ev.ID,
			SessionID:      ev.SessionID,
			Kind:           ev.Kind,
			NotificationID: ev.NotificationID,
			Status:         ev.Status,
			Error:          ev.Error,
		}
		if err := o.journal.Record(ctx, rec); err != nil {
			entry.Errorf("Failed to journal mutation: %v", err)
		}
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, &ev); err != nil {
			entry.Errorf("Failed to publish indicator event: %v", err)
		}
	}
}

// Stop refuses new events, drains the buffer and waits for the last delivery
// or for ctx, whichever comes first.
func (o *indicatorObserver) Stop(ctx context.Context) {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
	case <-ctx.Done():
		logrus.Warn("Indicator events not fully delivered before shutdown")
	}
}

// Dropped reports how many events were lost to a full buffer.
func (o *indicatorObserver) Dropped() int64 {
	return o.dropped.Load()
}
