package connectivity

import "sync"

// Signal reports connectivity and notifies subscribers on change.
type Signal interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

type subscriber struct {
	id int
	fn func(online bool)
}

// Switch is a Signal whose state is set explicitly.
type Switch struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	online    bool
	nextID    int
	listeners []subscriber
}

// NewSwitch returns a Switch in the given initial state.
func NewSwitch(online bool) *Switch {
	return &Switch{online: online}
}

// Online reports the current state.
func (s *Switch) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set changes the state and notifies listeners. It reports whether the state
// actually changed.
func (s *Switch) Set(online bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	listeners := make([]subscriber, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(online)
	}
	return true
}

// Subscribe registers fn and returns a function that removes it.
func (s *Switch) Subscribe(fn func(online bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
