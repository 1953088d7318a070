package libobs

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDestructor_DestroyIsOnce(t *testing.T) {
	var d Destructor
	fired := 0

	signal := d.DestroySignal()
	require.NotNil(t, signal)
	assert.Same(t, signal, d.DestroySignal())

	watcher := &plain{name: "watcher", total: &fired}
	Observe(signal, watcher, func(p *plain, _ Destructible) { *p.total++ }, Manual())

	d.Destroy()
	d.Destroy()

	assert.Equal(t, 1, fired)
	assert.True(t, d.Destroyed())
	assert.Nil(t, d.DestroySignal())
	assert.Equal(t, 0, signal.Len())
	runtime.KeepAlive(watcher)
}

func TestDestructor_DestroyWithoutObservers(t *testing.T) {
	var d Destructor

	assert.NotPanics(t, d.Destroy)
	assert.True(t, d.Destroyed())
}

func TestDestructor_OwnerDestroyedBeforeRegistering(t *testing.T) {
	c := NewChannel[int]()
	counter := 0
	x := newTally(t, "x", &counter, nil)
	x.Destroy()

	Observe(c, x, (*tally).add)

	assert.Equal(t, 0, c.Owners())
	c.Broadcast(1)
	assert.Equal(t, 0, counter)
}

func TestDestructor_PurgesEveryChannel(t *testing.T) {
	prices := NewChannel[int](WithName("prices"))
	labels := NewChannel[string](WithName("labels"))
	counter := 0
	x := newTally(t, "x", &counter, nil)

	Observe(prices, x, (*tally).add)
	Observe(prices, x, (*tally).double)
	Observe(labels, x, func(t *tally, s string) { *t.total += len(s) })

	x.Destroy()

	assert.Equal(t, 0, prices.Owners())
	assert.Equal(t, 0, labels.Owners())
}

func TestDestructor_UnregisteredOwnerStaysGone(t *testing.T) {
	c := NewChannel[int]()
	counter := 0
	x := newTally(t, "x", &counter, nil)

	Observe(c, x, (*tally).add)
	Unregister(c, x, (*tally).add)
	Observe(c, x, (*tally).add)

	// Rejoining does not stack destruction hooks.
	assert.Equal(t, 1, x.DestroySignal().Len())

	// The owner joined twice; destroying it must still leave nothing behind.
	x.Destroy()
	assert.Equal(t, 0, c.Owners())
}

// session is an owner whose lifetime is ended by its host.
type session struct {
	Hosted

	id    string
	total *int
}

func (s *session) add(v int) { *s.total += v }

func TestHosted_Removed(t *testing.T) {
	c := NewChannel[int]()
	counter := 0
	s := &session{id: "s1", total: &counter}

	Observe(c, s, (*session).add)
	c.Broadcast(2)

	s.Removed()
	s.Removed()

	c.Broadcast(2)
	assert.Equal(t, 2, counter)
	assert.Equal(t, 0, c.Owners())
	assert.True(t, s.Destroyed())
}

func TestHosted_AttachContext(t *testing.T) {
	c := NewChannel[int]()
	counter := 0
	s := &session{id: "s1", total: &counter}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.AttachContext(ctx)
	Observe(c, s, (*session).add)

	cancel()

	require.Eventually(t, func() bool { return c.Owners() == 0 }, time.Second, time.Millisecond)
	assert.True(t, s.Destroyed())
	runtime.KeepAlive(s)
}

func TestHosted_AttachDone(t *testing.T) {
	c := NewChannel[int]()
	counter := 0
	s := &session{id: "s1", total: &counter}
	done := make(chan struct{})

	s.AttachDone(done)
	Observe(c, s, (*session).add)

	close(done)

	require.Eventually(t, func() bool { return c.Owners() == 0 }, time.Second, time.Millisecond)
	assert.True(t, s.Destroyed())
	runtime.KeepAlive(s)
}

func TestHosted_RemovedDetachesHost(t *testing.T) {
	s := &session{id: "s1"}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.AttachContext(ctx)
	s.AttachDone(done)
	s.Removed()

	// Neither a late cancel nor a late close reaches the owner again.
	cancel()
	close(done)
	assert.True(t, s.Destroyed())
}

func TestObserve_WarnsAboutOwnersThatCannotAnnounceDestruction(t *testing.T) {
	logger := newMockLogger()
	logger.On("record", "warn", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "channel=prices") &&
			strings.Contains(msg, "owner=*libobs.plain") &&
			strings.Contains(msg, "cannot announce its destruction")
	})).Once()

	c := NewChannel[int](WithName("prices"), WithLogger(logger))
	counter := 0
	p := &plain{name: "p", total: &counter}

	addTwice := func(p *plain, v int) { *p.total += 2 * v }

	Observe(c, p, (*plain).add)
	// Further registrations of a known owner stay quiet.
	Observe(c, p, addTwice)

	logger.AssertExpectations(t)
	runtime.KeepAlive(p)
}

func TestObserve_WarnsOnEveryJoin(t *testing.T) {
	logger := newMockLogger()
	logger.On("record", "warn", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "cannot announce its destruction")
	})).Twice()

	c := NewChannel[int](WithLogger(logger))
	counter := 0
	p := &plain{name: "p", total: &counter}

	Observe(c, p, (*plain).add)
	Unregister(c, p, (*plain).add)
	Observe(c, p, (*plain).add)

	logger.AssertExpectations(t)
	runtime.KeepAlive(p)
}

// attachThenRemove attaches an owner to a context and a channel that never
// end, detaches it, and drops it.
func attachThenRemove(ctx context.Context, done <-chan struct{}) weak.Pointer[session] {
	s := &session{id: "detached"}
	s.AttachContext(ctx)
	s.AttachDone(done)
	s.Removed()
	return weak.Make(s)
}

func TestHosted_RemovedReleasesOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	defer close(done)

	wp := attachThenRemove(ctx, done)

	require.Eventually(t, func() bool {
		runtime.GC()
		return wp.Value() == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestObserve_NoWarningWhenExempt(t *testing.T) {
	// No expectations: any log call fails the test.
	logger := newMockLogger()
	c := NewChannel[int](WithLogger(logger))
	counter := 0

	p := &plain{name: "p", total: &counter}
	x := newTally(t, "x", &counter, nil)
	s := &session{id: "s", total: &counter}
	other := NewChannel[string]()

	Observe(c, p, (*plain).add, Manual())
	Observe(c, x, (*tally).add)
	Observe(c, s, (*session).add)
	Observe(c, other, func(o *Channel[string], v int) { o.Broadcast(strings.Repeat("x", v)) })

	assert.Equal(t, 4, c.Owners())
	logger.AssertExpectations(t)
	runtime.KeepAlive(p)
	runtime.KeepAlive(s)
	runtime.KeepAlive(other)
}

func TestObserve_DestroyedOwnerIsLoggedAtDebug(t *testing.T) {
	logger := newMockLogger()
	logger.On("record", "debug", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "already destroyed")
	})).Once()

	c := NewChannel[int](WithLogger(logger))
	counter := 0
	x := newTally(t, "x", &counter, nil)
	x.Destroy()

	Observe(c, x, (*tally).add)

	logger.AssertExpectations(t)
}
