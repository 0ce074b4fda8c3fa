package notification

import (
	"sync"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/google/uuid"
)

type entry struct {
	n      entity.Notification
	status entity.EntryStatus
	// seq of the local mutation that last touched the read flag
	mutSeq uint64
}

// Item is a cached notification together with its confirmation status.
type Item struct {
	Notification entity.Notification
	Status       entity.EntryStatus
}

// Mutation describes one optimistic change so it can be committed or reverted.
type Mutation struct {
	Ref  string
	Kind entity.IndicatorEventKind
	ID   string
	Seq  uint64

	delta    int
	prevRead map[string]bool
}

// Reconciler is the local cache of notifications and the unread counter.
//
// Every fetch takes a ticket from the same sequence that stamps local
// mutations. With strict ordering a response whose ticket is older than the
// last applied change is dropped; without it the last response to arrive wins.
type Reconciler struct {
	mu     sync.Mutex
	strict bool

	seq           uint64
	count         int
	countSeq      uint64
	serverCountAt uint64
	listSeq       uint64
	fetched       bool

	order   []string
	entries map[string]*entry

	stopped bool
}

func NewReconciler(strict bool) *Reconciler {
	return &Reconciler{
		strict:  strict,
		entries: make(map[string]*entry),
	}
}

func (r *Reconciler) next() uint64 {
	r.seq++
	return r.seq
}

// BeginFetch returns the ticket for a request about to be sent.
func (r *Reconciler) BeginFetch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next()
}

// ApplyCount overwrites the counter with a polled server value.
func (r *Reconciler) ApplyCount(ticket uint64, count int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	return r.applyCountLocked(ticket, count)
}

func (r *Reconciler) applyCountLocked(ticket uint64, count int) bool {
	if r.strict && ticket < r.countSeq {
		return false
	}
	if count < 0 {
		count = 0
	}
	r.count = count
	r.countSeq = ticket
	r.serverCountAt = r.next()
	return true
}

// ApplyList replaces the cached list with a fetched one.
func (r *Reconciler) ApplyList(ticket uint64, resp *entity.NotificationListResponse) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || resp == nil {
		return false
	}
	if r.strict && ticket < r.listSeq {
		return false
	}

	entries := make(map[string]*entry, len(resp.Notifications))
	order := make([]string, 0, len(resp.Notifications))
	for _, n := range resp.Notifications {
		e := &entry{n: n, status: entity.EntryCommitted}
		// keep read flags changed locally after this request went out
		if old, ok := r.entries[n.ID]; ok && r.strict && old.mutSeq > ticket {
			e.n.IsRead = old.n.IsRead
			e.status = old.status
			e.mutSeq = old.mutSeq
		}
		if _, dup := entries[n.ID]; !dup {
			order = append(order, n.ID)
		}
		entries[n.ID] = e
	}

	r.entries = entries
	r.order = order
	r.listSeq = ticket
	r.fetched = true
	r.applyCountLocked(ticket, resp.UnreadCount)
	return true
}

// MarkRead flips one entry to read. The counter drops only on an unread to read
// transition and never below zero.
func (r *Reconciler) MarkRead(id string) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return Mutation{}, entity.ErrIndicatorStopped
	}

	e, ok := r.entries[id]
	if !ok {
		return Mutation{}, entity.ErrNotificationNotFound
	}

	m := Mutation{
		Ref:      uuid.NewString(),
		Kind:     entity.EventMarkRead,
		ID:       id,
		Seq:      r.next(),
		prevRead: map[string]bool{id: e.n.IsRead},
	}

	if !e.n.IsRead && r.count > 0 {
		r.count--
		m.delta = 1
	}
	r.countSeq = m.Seq

	e.n.IsRead = true
	e.status = entity.EntryPending
	e.mutSeq = m.Seq
	return m, nil
}

// MarkAllRead flips every entry and zeroes the counter.
func (r *Reconciler) MarkAllRead() (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return Mutation{}, entity.ErrIndicatorStopped
	}

	m := Mutation{
		Ref:      uuid.NewString(),
		Kind:     entity.EventMarkAllRead,
		Seq:      r.next(),
		delta:    r.count,
		prevRead: make(map[string]bool, len(r.entries)),
	}

	for id, e := range r.entries {
		m.prevRead[id] = e.n.IsRead
		e.n.IsRead = true
		e.status = entity.EntryPending
		e.mutSeq = m.Seq
	}
	r.count = 0
	r.countSeq = m.Seq
	return m, nil
}

// Commit confirms a mutation. For a single mark-read the server copy replaces
// the local entry.
func (r *Reconciler) Commit(m Mutation, server *entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	for id := range m.prevRead {
		e, ok := r.entries[id]
		if !ok || e.mutSeq != m.Seq {
			continue
		}
		if server != nil && server.ID == id {
			e.n = *server
			e.n.IsRead = true
		}
		e.status = entity.EntryCommitted
	}
}

// Revert undoes a failed mutation on entries no later change has touched.
// The counter is restored unless a server value arrived in the meantime.
func (r *Reconciler) Revert(m Mutation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}

	reverted := false
	for id, prev := range m.prevRead {
		e, ok := r.entries[id]
		if !ok || e.mutSeq != m.Seq {
			continue
		}
		e.n.IsRead = prev
		e.status = entity.EntryCommitted
		reverted = true
	}

	restoreCount := r.serverCountAt < m.Seq
	if m.Kind == entity.EventMarkRead {
		restoreCount = restoreCount && reverted
	}
	if restoreCount && m.delta > 0 {
		r.count += m.delta
		reverted = true
	}
	return reverted
}

func (r *Reconciler) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Fetched reports whether a list response has been applied at least once.
func (r *Reconciler) Fetched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetched
}

func (r *Reconciler) Get(id string) (Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Item{}, false
	}
	return Item{Notification: e.n, Status: e.status}, true
}

// Items returns the cached list in server order.
func (r *Reconciler) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		out = append(out, Item{Notification: e.n, Status: e.status})
	}
	return out
}

// Stop turns every later update into a no-op.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}
