package event

import (
	"fmt"
	"slices"
	"sync"

	"github.com/messmate/backend/internal/domain/shared"
)

// Subscription is one handler and the event types it receives. No types
// means every event.
type Subscription struct {
	Name    string
	Handler shared.EventHandler
	Types   []string
}

func (s Subscription) accepts(eventType string) bool {
	return len(s.Types) == 0 || slices.Contains(s.Types, eventType)
}

// HandlerRegistry keeps subscriptions in registration order
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []Subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes. Registering a handler again
// merges the new types into its existing subscription.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subs {
		if r.subs[i].Handler != handler {
			continue
		}
		sub := &r.subs[i]
		switch {
		case len(eventTypes) == 0:
			sub.Types = nil
		case len(sub.Types) > 0:
			for _, t := range eventTypes {
				if !slices.Contains(sub.Types, t) {
					sub.Types = append(sub.Types, t)
				}
			}
		}
		return *sub
	}

	sub := Subscription{
		Name:    fmt.Sprintf("%T", handler),
		Handler: handler,
		Types:   slices.Clone(eventTypes),
	}
	r.subs = append(r.subs, sub)
	return sub
}

// Unregister drops the handler's subscription. It reports whether one existed.
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.subs)
	r.subs = slices.DeleteFunc(r.subs, func(s Subscription) bool { return s.Handler == handler })
	return len(r.subs) != n
}

// GetHandlers returns the handlers receiving eventType in registration order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.EventHandler
	for _, s := range r.subs {
		if s.accepts(eventType) {
			out = append(out, s.Handler)
		}
	}
	return out
}

// Subscriptions returns a copy of every subscription
func (r *HandlerRegistry) Subscriptions() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Subscription, len(r.subs))
	for i, s := range r.subs {
		s.Types = slices.Clone(s.Types)
		out[i] = s
	}
	return out
}
