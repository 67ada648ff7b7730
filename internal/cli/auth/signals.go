package auth

import "sync"

// LoginRoute is where a UI should send the user once the session ends.
const LoginRoute = "/admin-login"

type EventKind int

const (
	EventLoggedIn EventKind = iota + 1
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event is a session lifecycle notification. Route is set on logout so the
// routing layer knows where to navigate.
type Event struct {
	Kind  EventKind
	Route string
	Email string
}

// Signals fans session events out to subscribers. Emit never blocks: a
// subscriber whose buffer is full misses the event.
type Signals struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewSignals() *Signals {
	return &Signals{subs: map[int]chan Event{}}
}

// Subscribe returns a channel of future events and a function that
// unsubscribes and closes it.
func (s *Signals) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, 8)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Signals) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
