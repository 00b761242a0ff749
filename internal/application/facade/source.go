// Package facade keeps local read models in step with catalog events.
package facade

import (
	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
)

// EventSource is the part of the hub a feed needs.
type EventSource interface {
	Subscribe(name event.Name, cb *hub.Callback) *hub.Subscription
}

var _ EventSource = (*hub.EventHub)(nil)

// subscriptions is the set of tokens a feed holds while attached.
type subscriptions []*hub.Subscription

func (s subscriptions) unsubscribe() {
	for _, sub := range s {
		sub.Unsubscribe()
	}
}
