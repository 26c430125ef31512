// Package notify delivers post-commit domain events. Delivery is best-effort
// and must never influence the outcome of the transaction that produced the
// event.
package notify

import (
	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/domain"
)

// Notifier is the fire-and-forget publish side of the notification bus.
type Notifier interface {
	Publish(event domain.Event)
}

// Subscriber receives every published event.
type Subscriber interface {
	Notify(event domain.Event)
}

// Bus is an in-process notifier fanning events out to its subscribers on a
// background goroutine per publish.
type Bus struct {
	subscribers []Subscriber
}

func NewBus(subscribers ...Subscriber) *Bus {
	return &Bus{subscribers: subscribers}
}

func (b *Bus) Publish(event domain.Event) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).
					Str("event", event.EventName()).
					Msg("notify: subscriber panicked")
			}
		}()
		for _, sub := range b.subscribers {
			sub.Notify(event)
		}
		log.Debug().Str("event", event.EventName()).Msg("notify: published")
	}()
}

// NopNotifier discards events; used in tests and minimal wiring.
type NopNotifier struct{}

func (NopNotifier) Publish(domain.Event) {}
