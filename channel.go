package libobs

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Channel is a typed broadcast point. Listeners register callbacks on behalf
// of an owner with Observe or ObservePayload; Broadcast invokes the callbacks
// of every owner still alive, in first-registration order.
//
// A Channel never keeps an owner alive. Owners that are collected, or that
// announce their destruction through Destructible, are forgotten without any
// explicit unregister call.
//
// Callbacks run synchronously on the broadcasting goroutine and may call any
// method of any channel, including the one dispatching them. The internal lock
// is never held while a callback runs.
type Channel[T any] struct {
	id       uuid.UUID
	name     string
	logger   Logger
	policy   PanicPolicy
	resolver *Resolver

	mu      sync.Mutex
	keys    []OwnerKey // first-registration order
	buckets map[OwnerKey]*bucket[T]
}

// NewChannel creates an empty channel.
func NewChannel[T any](opts ...Option) *Channel[T] {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	id := uuid.New()
	if o.Name == "" {
		o.Name = id.String()
	}
	if o.Logger == nil {
		o.Logger = NoopLogger()
	}
	if o.Resolver == nil {
		o.Resolver = NewResolver()
	}

	return &Channel[T]{
		id:       id,
		name:     o.Name,
		logger:   o.Logger.WithField("channel", o.Name),
		policy:   o.PanicPolicy,
		resolver: o.Resolver,
		buckets:  make(map[OwnerKey]*bucket[T]),
	}
}

// ID returns the unique identifier of the channel.
func (c *Channel[T]) ID() uuid.UUID { return c.id }

// Name returns the channel name, which is its ID unless WithName was given.
func (c *Channel[T]) Name() string { return c.name }

// Len returns the number of live registrations.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, b := range c.buckets {
		for _, e := range b.entries {
			if e.live() {
				n++
			}
		}
	}
	return n
}

// Owners returns the number of owners holding at least one registration.
// Owners that were collected are counted until the next broadcast prunes
// them.
func (c *Channel[T]) Owners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// UnregisterAll removes every registration of owner, with or without payload.
// It is a no-op for owners that never registered.
func (c *Channel[T]) UnregisterAll(owner any) {
	key, ok := c.resolver.Lookup(owner)
	if !ok {
		return
	}
	c.purge(key)
}

// Clear removes all owners and all registrations. Broadcasts in flight skip
// whatever they have not reached yet.
func (c *Channel[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.buckets {
		b.markRemoved()
	}
	c.keys = nil
	c.buckets = make(map[OwnerKey]*bucket[T])
}

// isChannel marks channels so that a channel registering on another one (the
// destruction hook does exactly that) is not reported as a leaking owner.
func (c *Channel[T]) isChannel() {}

type channelOwner interface{ isChannel() }

// register stores e under owner. It reports whether the owner just joined the
// channel and therefore needs its lifecycle hook wired.
func (c *Channel[T]) register(key OwnerKey, e *entry[T]) (joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[key]
	if !ok {
		b = &bucket[T]{}
		c.buckets[key] = b
		c.keys = append(c.keys, key)
	}

	if b.contains(e.id) {
		return false
	}
	b.entries = append(b.entries, e)

	return !ok
}

func (c *Channel[T]) unregister(key OwnerKey, id callbackID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[key]
	if !ok {
		return
	}
	if b.remove(id) && len(b.entries) == 0 {
		c.dropLocked(key)
	}
}

// purge forgets everything registered under key.
func (c *Channel[T]) purge(key OwnerKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[key]
	if !ok {
		return
	}
	b.markRemoved()
	c.dropLocked(key)
}

// sweep compacts every bucket and drops the keys left without entries.
func (c *Channel[T]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, b := range c.buckets {
		b.compact()
		if len(b.entries) == 0 {
			c.dropLocked(key)
		}
	}
}

func (c *Channel[T]) dropLocked(key OwnerKey) {
	delete(c.buckets, key)
	if i := slices.Index(c.keys, key); i >= 0 {
		c.keys = slices.Delete(c.keys, i, i+1)
	}
}
