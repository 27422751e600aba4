// Package registry tracks the set of live client sessions (spec section
// 4.3): the Acceptor inserts on accept, a session removes itself on exit,
// and shutdown drains the set to empty before the process returns.
package registry

import "sync"

// Session is anything a ClientSession needs to expose to the registry:
// enough to stop it and wait for it to finish.
type Session interface {
	Stop()
	Wait()
}

// Registry is a thread-safe set of live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[Session]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[Session]struct{})}
}

// Add inserts a session. Safe to call from the Acceptor goroutine while
// sessions concurrently remove themselves.
func (r *Registry) Add(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

// Remove deletes a session. A session calls this on its own exit.
func (r *Registry) Remove(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops every currently registered session and waits for all of
// them to finish before returning, draining the registry to empty.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
	for _, s := range sessions {
		s.Wait()
	}
}
