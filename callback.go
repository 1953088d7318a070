package libobs

import (
	"reflect"
	"sync/atomic"
	"unsafe"
)

// callbackID is the identity of a registered function: its code pointer, the
// closure it is bound to and the payload type it expects (nil for plain
// callbacks). The owner half of the identity is the bucket the entry lives in.
//
// Method expressions and literals capturing nothing share one static closure,
// so writing them again yields the same identity. Capturing literals get a
// closure per evaluation and stay distinct.
type callbackID struct {
	code    uintptr
	closure uintptr
	payload reflect.Type
}

func newCallbackID[F any](fn F, payload reflect.Type) callbackID {
	return callbackID{
		code:    reflect.ValueOf(fn).Pointer(),
		closure: *(*uintptr)(unsafe.Pointer(&fn)),
		payload: payload,
	}
}

// entry is one registered callback. call reports false when the owner has been
// collected, in which case nothing was invoked.
type entry[T any] struct {
	id      callbackID
	alive   func() bool
	call    func(v T, payload any) bool
	removed atomic.Bool
}

func (e *entry[T]) live() bool {
	return !e.removed.Load() && e.alive()
}

// bucket holds the entries of one owner in registration order.
type bucket[T any] struct {
	entries []*entry[T]
}

func (b *bucket[T]) contains(id callbackID) bool {
	for _, e := range b.entries {
		if e.id == id && e.live() {
			return true
		}
	}
	return false
}

// remove drops the first live entry matching id and marks it removed so that
// an in-flight dispatch holding it skips it.
func (b *bucket[T]) remove(id callbackID) bool {
	for i, e := range b.entries {
		if e.id != id || e.removed.Load() {
			continue
		}
		e.removed.Store(true)
		b.entries = append(b.entries[:i], b.entries[i+1:]...)
		return true
	}
	return false
}

// compact drops removed entries and those whose owner is gone.
func (b *bucket[T]) compact() {
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.live() {
			kept = append(kept, e)
			continue
		}
		e.removed.Store(true)
	}
	clear(b.entries[len(kept):])
	b.entries = kept
}

func (b *bucket[T]) markRemoved() {
	for _, e := range b.entries {
		e.removed.Store(true)
	}
}
