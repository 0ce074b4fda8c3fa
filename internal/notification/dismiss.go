package notification

import (
	"sync"

	"github.com/ds124wfegd/innonet-bff/internal/entity"
)

// Listener receives pointer interactions of one session.
type Listener func(p entity.Point)

// DismissRegistry holds the pointer listeners attached by open dropdowns.
// Each session owns its own registry.
type DismissRegistry struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

func NewDismissRegistry() *DismissRegistry {
	return &DismissRegistry{listeners: make(map[int]Listener)}
}

// Attach registers l and returns a detach func that is safe to call twice.
func (r *DismissRegistry) Attach(l Listener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[id] = l
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Dispatch delivers p to every attached listener and reports how many ran.
func (r *DismissRegistry) Dispatch(p entity.Point) int {
	r.mu.Lock()
	current := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		current = append(current, l)
	}
	r.mu.Unlock()

	// listeners may detach themselves
	for _, l := range current {
		l(p)
	}
	return len(current)
}

func (r *DismissRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}
