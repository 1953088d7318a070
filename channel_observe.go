package libobs

import (
	"reflect"
	"weak"
)

// Observe registers fn on c on behalf of owner. Broadcast calls fn with the
// owner and the broadcast value for as long as the owner is alive and
// registered.
//
// The channel holds owner weakly, so fn should reach owner state through its
// first argument rather than capturing it: a method expression such as
// (*Widget).OnPrice is the intended form. A closure that captures owner keeps
// it alive for as long as the registration exists.
//
// Registering the same owner and function again is a no-op. Closures that
// capture variables are distinct per evaluation, even from one literal. Owners
// that are not Destructible are reported to the channel logger unless Manual is given.
func Observe[O, T any](c *Channel[T], owner *O, fn func(*O, T), opts ...ObserveOption) {
	if fn == nil {
		panic(ErrNilCallback)
	}
	observe(c, owner, plainEntry(owner, fn), opts)
}

// ObservePayload is Observe for broadcasts carrying a payload of type P. Only
// BroadcastPayload with the same P invokes fn; plain Broadcast never does.
func ObservePayload[O, T, P any](c *Channel[T], owner *O, fn func(*O, T, P), opts ...ObserveOption) {
	if fn == nil {
		panic(ErrNilCallback)
	}
	observe(c, owner, payloadEntry(owner, fn), opts)
}

func plainEntry[O, T any](owner *O, fn func(*O, T)) *entry[T] {
	wp := weak.Make(owner)
	return &entry[T]{
		id:    newCallbackID(fn, nil),
		alive: func() bool { return wp.Value() != nil },
		call: func(v T, _ any) bool {
			o := wp.Value()
			if o == nil {
				return false
			}
			fn(o, v)
			return true
		},
	}
}

func payloadEntry[O, T, P any](owner *O, fn func(*O, T, P)) *entry[T] {
	wp := weak.Make(owner)
	return &entry[T]{
		id:    newCallbackID(fn, reflect.TypeFor[P]()),
		alive: func() bool { return wp.Value() != nil },
		call: func(v T, payload any) bool {
			o := wp.Value()
			if o == nil {
				return false
			}
			p, _ := payload.(P)
			fn(o, v, p)
			return true
		},
	}
}

// Unregister removes the registration of fn for owner. Functions compare by
// identity, so a method expression written again at another call site matches
// the one originally registered, while a capturing closure matches only the
// very value that was registered. Unknown pairs are ignored.
func Unregister[O, T any](c *Channel[T], owner *O, fn func(*O, T)) {
	unregister(c, owner, newCallbackID(fn, nil))
}

// UnregisterPayload is Unregister for callbacks registered with ObservePayload.
func UnregisterPayload[O, T, P any](c *Channel[T], owner *O, fn func(*O, T, P)) {
	unregister(c, owner, newCallbackID(fn, reflect.TypeFor[P]()))
}

func observe[T any](c *Channel[T], owner any, e *entry[T], opts []ObserveOption) {
	var o observeOptions
	for _, fn := range opts {
		fn(&o)
	}

	key := c.resolver.Resolve(owner)
	if !c.register(key, e) {
		return
	}
	c.wire(owner, key, o.manual)
}

func unregister[T any](c *Channel[T], owner any, id callbackID) {
	if id.code == 0 {
		return
	}
	key, ok := c.resolver.Lookup(owner)
	if !ok {
		return
	}
	c.unregister(key, id)
}

// wire connects the destruction signal of a newly joined owner to c so that
// its teardown purges key.
func (c *Channel[T]) wire(owner any, key OwnerKey, manual bool) {
	logger := c.logger.WithField("owner", reflect.TypeOf(owner)).WithField("key", key)

	switch o := owner.(type) {
	case Destructible:
		signal := o.DestroySignal()
		if signal == nil {
			logger.Debugln("owner already destroyed, dropping its registration")
			c.purge(key)
			return
		}
		hook := plainEntry(c, func(c *Channel[T], _ Destructible) { c.purge(key) })
		// One hook per key however many times the owner rejoins c.
		hook.id.closure = uintptr(key)
		observe(signal, c, hook, []ObserveOption{Manual()})
	case channelOwner:
	default:
		if manual {
			return
		}
		logger.Warnf("owner %T cannot announce its destruction: embed Destructor or Hosted, "+
			"or register with Manual() and unregister it explicitly", owner)
	}
}
