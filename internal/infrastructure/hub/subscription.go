package hub

import (
	"sync"

	"go-notification-hub/internal/domain/event"
)

// Subscription is the token returned by Subscribe. It holds the
// (event, callback) pair it removes.
type Subscription struct {
	hub      *EventHub
	event    event.Name
	callback *Callback
	once     sync.Once
}

func (s *Subscription) Event() event.Name {
	return s.event
}

// Unsubscribe removes the registration. Only the first call has an effect,
// so a later Subscribe of the same pair is never undone by a stale token.
// Safe to call from inside the callback it cancels.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.Unsubscribe(s.event, s.callback)
	})
}
