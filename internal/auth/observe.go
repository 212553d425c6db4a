package auth

import (
	"sync"
	"time"
)

// EventKind names a session state transition.
type EventKind string

const (
	EventLoggedIn  EventKind = "logged_in"
	EventRefreshed EventKind = "refreshed"
	EventLoggedOut EventKind = "logged_out"
)

// SessionEvent is delivered to subscribers after every transition.
type SessionEvent struct {
	Kind   EventKind `json:"kind"`
	Reason string    `json:"reason"` // login, adopt, refresh, refresh_failed, logout, store
	At     time.Time `json:"at"`
}

// LoggedIn reports the session state after the event.
func (e SessionEvent) LoggedIn() bool {
	return e.Kind != EventLoggedOut
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs synchronously on the goroutine that changed the state
// and must not call back into the session's mutating methods.
func (s *Session) Subscribe(fn func(SessionEvent)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Session) notify(ev SessionEvent) {
	s.obsMu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
