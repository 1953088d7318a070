package libobs

import (
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/pkg/errors"
)

// OwnerKey identifies one owner instance for as long as it is alive. Keys are
// never reused; the zero key is never handed out.
type OwnerKey uint64

func (k OwnerKey) String() string { return "owner#" + strconv.FormatUint(uint64(k), 10) }

var lastOwnerKey atomic.Uint64

func nextOwnerKey() OwnerKey {
	k := lastOwnerKey.Add(1)
	if k == 0 {
		panic(ErrKeySpaceExhausted)
	}
	return OwnerKey(k)
}

// Resolver assigns OwnerKeys to owners through a side table that holds owners
// weakly. Once an owner is collected its entry is dropped by a runtime cleanup.
// A Resolver is safe for concurrent use.
type Resolver struct {
	mu   sync.Mutex
	keys map[weak.Pointer[byte]]OwnerKey
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{keys: make(map[weak.Pointer[byte]]OwnerKey)}
}

// resolverTomb is the cleanup argument attached to every resolved owner. It
// must not reference the owner nor keep the resolver alive.
type resolverTomb struct {
	resolver weak.Pointer[Resolver]
	owner    weak.Pointer[byte]
}

func buryOwner(t resolverTomb) {
	if r := t.resolver.Value(); r != nil {
		r.forget(t.owner)
	}
}

// Resolve returns the key of owner, allocating one on first use. owner must
// be a non-nil pointer to a non-zero-sized value; anything else panics with an
// error wrapping ErrInvalidOwner.
func (r *Resolver) Resolve(owner any) OwnerKey {
	ptr := ownerPointer(owner)
	wp := weak.Make(ptr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.keys[wp]; ok {
		return k
	}

	k := nextOwnerKey()
	r.keys[wp] = k
	runtime.AddCleanup(ptr, buryOwner, resolverTomb{resolver: weak.Make(r), owner: wp})

	return k
}

// Lookup returns the key of owner if it has been resolved before.
func (r *Resolver) Lookup(owner any) (OwnerKey, bool) {
	wp := weak.Make(ownerPointer(owner))

	r.mu.Lock()
	k, ok := r.keys[wp]
	r.mu.Unlock()

	return k, ok
}

// Len reports how many live owners the resolver currently tracks.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

func (r *Resolver) forget(wp weak.Pointer[byte]) {
	r.mu.Lock()
	delete(r.keys, wp)
	r.mu.Unlock()
}

// ownerPointer validates owner and returns the address of the value it points
// to. Weak handles are per address, so the element type does not matter.
func ownerPointer(owner any) *byte {
	v := reflect.ValueOf(owner)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		panic(errors.Wrapf(ErrInvalidOwner, "got %T", owner))
	}
	if v.Type().Elem().Size() == 0 {
		panic(errors.Wrapf(ErrInvalidOwner, "%T points to a zero-sized value", owner))
	}
	return (*byte)(v.UnsafePointer())
}
