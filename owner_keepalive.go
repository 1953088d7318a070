package libobs

import (
	"time"
)

// KeepAliveMessageFactory builds the frame sent on every keep-alive tick.
type KeepAliveMessageFactory func() Message

// NewKeepAliveMessageFactory returns a factory of mt frames whose content is
// produced by contentFactory.
func NewKeepAliveMessageFactory(mt MessageType, contentFactory func() []byte) KeepAliveMessageFactory {
	return func() Message {
		return NewMessage(mt, contentFactory())
	}
}

// WithWsKeepAlive makes the owner send a frame built by factory every
// interval for as long as the connection is open. A nil factory sends empty
// pings.
func WithWsKeepAlive(interval time.Duration, factory KeepAliveMessageFactory) WsOption {
	return func(o *wsOptions) {
		if factory == nil {
			factory = func() Message { return NewPingMessage(nil) }
		}
		o.keepAliveInterval = interval
		o.keepAlive = factory
	}
}

// keepAlive sends periodic frames until the connection is gone.
func (w *WsOwner) keepAlive(interval time.Duration, factory KeepAliveMessageFactory) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.Send(factory()); err != nil {
				w.logger.Debugf("keep-alive stopped: %s", err)
				return
			}
		}
	}
}
