package store

import (
	"fmt"
	"sync"

	applog "clothsy/internal/log"
)

type listener struct {
	id uint64
	fn func()
}

// Subscribe registers fn to run after every successful mutation or refresh.
// Listeners run synchronously in registration order on the mutating goroutine, so
// they must not call back into a mutating Store method.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.lmu.Lock()
	s.lastID++
	id := s.lastID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify() {
	s.lmu.Lock()
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.lmu.Unlock()

	for _, l := range ls {
		s.call(l)
	}
}

func (s *Store) call(l listener) {
	defer func() {
		if r := recover(); r != nil {
			applog.Error(nil, "store.listener.panic", fmt.Errorf("%v", r), map[string]any{"listener": l.id})
		}
	}()
	l.fn()
}
