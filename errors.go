package libobs

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrInvalidOwner      = errors.New("owner must be a non-nil pointer to a sized value")
	ErrNilCallback       = errors.New("callback must not be nil")
	ErrKeySpaceExhausted = errors.New("owner key space exhausted")
	ErrCallbackPanic     = errors.New("callback panicked")

	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
)

// ErrUnrecoverableConnection reports a dial failure that retrying will not fix.
type ErrUnrecoverableConnection struct {
	err error
	url url.URL
}

func (e ErrUnrecoverableConnection) Error() string {
	return fmt.Sprintf("Unrecoverable connection error: %s to %s", e.err, e.url.String())
}

func (e ErrUnrecoverableConnection) Unwrap() error { return e.err }

func WrapErrorUnrecoverableConnection(err error, url url.URL) *ErrUnrecoverableConnection {
	if err == nil {
		return nil
	}
	return &ErrUnrecoverableConnection{
		err: err,
		url: url,
	}
}

// panicError turns a recovered value into an error carrying the stack of the
// goroutine that panicked.
func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return errors.WithStack(fmt.Errorf("%w: %w", ErrCallbackPanic, err))
	}
	return errors.Wrapf(ErrCallbackPanic, "%v", recovered)
}
