package libobs

import (
	"reflect"
)

// Broadcast invokes every plain callback registered on c with v, owner by
// owner in first-registration order, and within an owner in registration
// order.
//
// The set of callbacks is taken when Broadcast starts: callbacks registered
// meanwhile run from the next broadcast on, while callbacks removed before
// their turn are skipped. Registrations whose owner has been collected are
// pruned on the way, whatever payload type they expect.
func (c *Channel[T]) Broadcast(v T) {
	c.dispatch(v, nil, nil)
}

// BroadcastPayload invokes the callbacks registered on c with ObservePayload
// for payload type P. Plain callbacks and callbacks expecting another payload
// type are not invoked.
func BroadcastPayload[T, P any](c *Channel[T], v T, payload P) {
	c.dispatch(v, reflect.TypeFor[P](), payload)
}

func (c *Channel[T]) dispatch(v T, payloadType reflect.Type, payload any) {
	entries, stale := c.snapshot(payloadType)
	defer func() {
		if stale {
			c.sweep()
		}
	}()

	for _, e := range entries {
		if e.removed.Load() {
			continue
		}
		if !c.invoke(e, v, payload) {
			e.removed.Store(true)
			stale = true
		}
	}
}

// snapshot flattens the live entries expecting payloadType in dispatch order.
// It also reports whether any entry, of whatever payload type, is dead.
func (c *Channel[T]) snapshot(payloadType reflect.Type) (entries []*entry[T], stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.keys {
		for _, e := range c.buckets[key].entries {
			if !e.live() {
				stale = true
				continue
			}
			if e.id.payload == payloadType {
				entries = append(entries, e)
			}
		}
	}
	return entries, stale
}

// invoke runs one callback under the channel panic policy. It reports false
// when the owner of e is gone.
func (c *Channel[T]) invoke(e *entry[T], v T, payload any) (alive bool) {
	if c.policy == PanicPropagate {
		return e.call(v, payload)
	}

	defer func() {
		if r := recover(); r != nil {
			alive = true
			logger := c.logger.WithField("value", v)
			if payload != nil {
				logger = logger.WithField("payload", payload)
			}
			logger.Errorf("unexpected panic while broadcasting: %+v", panicError(r))
		}
	}()

	return e.call(v, payload)
}
