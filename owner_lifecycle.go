package libobs

import (
	"context"
	"sync"
)

// Destructible is implemented by owners that announce their own destruction.
// Every channel an owner registers on observes its DestroySignal and purges
// the owner's registrations when the signal fires.
//
// The signal fires at most once. DestroySignal returns nil once it has fired.
type Destructible interface {
	DestroySignal() *Channel[Destructible]
}

// Destructor is the Destructible of owners with an explicit teardown path.
// Embed it and call Destroy from Close, Dispose or whatever ends the owner's
// life:
//
//	type Widget struct {
//		libobs.Destructor
//		...
//	}
//
//	func (w *Widget) Close() { w.Destroy() }
//
// Owners that are simply dropped need no teardown at all: channels notice
// collected owners on their own.
type Destructor struct {
	mu        sync.Mutex
	signal    *Channel[Destructible]
	destroyed bool
}

// DestroySignal returns the channel fired by Destroy, or nil after Destroy.
func (d *Destructor) DestroySignal() *Channel[Destructible] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return nil
	}
	if d.signal == nil {
		d.signal = NewChannel[Destructible](WithName("destroy"))
	}
	return d.signal
}

// Destroy fires the destruction signal. Only the first call has any effect.
func (d *Destructor) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	signal := d.signal
	d.signal = nil
	d.mu.Unlock()

	if signal == nil {
		return
	}
	signal.Broadcast(d)
	signal.Clear()
}

// Destroyed reports whether Destroy has been called.
func (d *Destructor) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// Hosted is the Destructible of owners whose lifetime is ended by whatever
// hosts them: a server tearing down a session, a context being canceled, a
// connection being closed by its peer. The host reports the end through
// Removed, or the owner is attached to a context or a done channel up front.
type Hosted struct {
	Destructor

	mu    sync.Mutex
	stops []func() bool
}

// Removed is the host teardown hook. It fires the destruction signal once and
// detaches any context or channel the owner was attached to.
func (h *Hosted) Removed() {
	h.mu.Lock()
	stops := h.stops
	h.stops = nil
	h.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	h.Destroy()
}

// AttachContext ends the owner when ctx is done.
//
// Until then the context holds the owner strongly, so an owner attached to a
// context that is never canceled is never collected. Call Removed to detach
// it early.
func (h *Hosted) AttachContext(ctx context.Context) {
	stop := context.AfterFunc(ctx, h.Removed)

	h.mu.Lock()
	h.stops = append(h.stops, stop)
	h.mu.Unlock()
}

// AttachDone ends the owner when done is closed.
//
// A goroutine waits on done and holds the owner strongly meanwhile: an owner
// attached to a channel that is never closed is never collected unless
// Removed is called.
func (h *Hosted) AttachDone(done <-chan struct{}) {
	quit := make(chan struct{})
	var once sync.Once
	stop := func() bool {
		stopped := false
		once.Do(func() {
			close(quit)
			stopped = true
		})
		return stopped
	}

	h.mu.Lock()
	h.stops = append(h.stops, stop)
	h.mu.Unlock()

	go func() {
		select {
		case <-done:
			h.Removed()
		case <-quit:
		}
	}()
}
