package clients

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrAtCapacity is the admission rejection. Its text is sent to the client
// as the close reason.
var ErrAtCapacity = errors.New("server busy: max connections reached")

// Info describes one live session.
type Info struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remote_addr"`
	Since      time.Time `json:"since"`
}

// Registry tracks live sessions and admits new ones up to a fixed cap.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	sessions map[string]Info
}

func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = 1
	}
	return &Registry{capacity: capacity, sessions: make(map[string]Info)}
}

// Admit registers a session if a slot is free. Check and insert happen under
// one lock, so the registry never holds more than Capacity entries. The
// returned Lease must be released exactly once on teardown; extra Release
// calls are no-ops.
func (r *Registry) Admit(id, remoteAddr string) (*Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.capacity {
		return nil, ErrAtCapacity
	}
	if _, dup := r.sessions[id]; dup {
		return nil, errors.New("duplicate session id " + id)
	}
	r.sessions[id] = Info{ID: id, RemoteAddr: remoteAddr, Since: time.Now()}
	return &Lease{id: id, reg: r}, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Capacity() int { return r.capacity }

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

// Snapshot returns the live sessions ordered by admission time.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Since.Before(out[j].Since) })
	return out
}

// Lease is a held registry slot.
type Lease struct {
	id   string
	reg  *Registry
	once sync.Once
}

func (l *Lease) ID() string { return l.id }

// Release frees the slot.
func (l *Lease) Release() {
	l.once.Do(func() { l.reg.remove(l.id) })
}
