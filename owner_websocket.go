package libobs

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	// DialParams locates the websocket endpoint.
	DialParams struct {
		URL    url.URL
		Header http.Header
	}

	// ErrAdapter maps the outcome of a dial to the error DialWebsocket returns.
	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	// WsOption configures DialWebsocket.
	WsOption func(*wsOptions)

	wsOptions struct {
		logger       Logger
		dialer       *websocket.Dialer
		onDial       ErrAdapter
		writeTimeout time.Duration
		channelOpts  []Option

		keepAliveInterval time.Duration
		keepAlive         KeepAliveMessageFactory
	}
)

// WithWsLogger sets the logger of the owner and of its Messages channel.
func WithWsLogger(l Logger) WsOption { return func(o *wsOptions) { o.logger = l } }

// WithWsDialer replaces websocket.DefaultDialer.
func WithWsDialer(d *websocket.Dialer) WsOption { return func(o *wsOptions) { o.dialer = d } }

// WithWsErrorAdapter overrides how dial failures are classified.
func WithWsErrorAdapter(fn ErrAdapter) WsOption { return func(o *wsOptions) { o.onDial = fn } }

// WithWsWriteTimeout bounds every frame write. Defaults to one second.
func WithWsWriteTimeout(d time.Duration) WsOption { return func(o *wsOptions) { o.writeTimeout = d } }

// WithWsChannelOptions passes options to the Messages channel.
func WithWsChannelOptions(opts ...Option) WsOption {
	return func(o *wsOptions) { o.channelOpts = append(o.channelOpts, opts...) }
}

// WsOwner is a websocket connection acting both as an emitter and as an owner.
//
// Every frame read from the peer is broadcast on Messages. The connection can
// also register callbacks on other channels, typically to forward them to the
// peer; those registrations are purged from every channel as soon as the
// connection dies, whichever side closes it.
type WsOwner struct {
	Hosted

	logger       Logger
	conn         *websocket.Conn
	messages     *Channel[Message]
	writeTimeout time.Duration

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once

	reasonMu    sync.Mutex
	closeReason error
}

// DialWebsocket connects to params.URL and starts reading frames. The context
// bounds the dial only; use Close to end the connection.
func DialWebsocket(ctx context.Context, params DialParams, opts ...WsOption) (*WsOwner, error) {
	o := wsOptions{
		logger:       NoopLogger(),
		dialer:       websocket.DefaultDialer,
		writeTimeout: time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	target := params.URL.String()
	logger := o.logger.WithField("net", "ws_owner").WithField("url", target)

	conn, resp, err := o.dialer.DialContext(ctx, target, params.Header)
	if err = dialError(o.onDial, params.URL, conn, resp, err); err != nil {
		logger.Errorf("connection err: %s", err)
		if conn != nil {
			_ = conn.Close()
		}
		return nil, err
	}

	logger.Debugf("success opening connection")

	channelOpts := append([]Option{WithName("ws " + target), WithLogger(o.logger)}, o.channelOpts...)
	w := &WsOwner{
		logger:       logger,
		conn:         conn,
		messages:     NewChannel[Message](channelOpts...),
		writeTimeout: o.writeTimeout,
		send:         make(chan Message),
		done:         make(chan struct{}),
	}

	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.messages.Broadcast(NewPingMessage([]byte(appData)))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(w.writeTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(appData string) error {
		w.logger.Debugln("<= [PONG]")
		w.messages.Broadcast(NewPongMessage([]byte(appData)))
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugln("<= [CLOSE]")
		w.messages.Broadcast(NewCloseMessage(code, []byte(text)))
		reply := websocket.FormatCloseMessage(code, "")
		_ = conn.WriteControl(websocket.CloseMessage, reply, time.Now().Add(w.writeTimeout))
		return nil
	})

	go w.read()
	go w.write()
	if o.keepAlive != nil && o.keepAliveInterval > 0 {
		go w.keepAlive(o.keepAliveInterval, o.keepAlive)
	}

	return w, nil
}

// Messages is the channel on which incoming frames are broadcast.
func (w *WsOwner) Messages() *Channel[Message] { return w.messages }

// Send queues m for the peer. It fails with ErrConnectionClosed once the
// connection is gone.
func (w *WsOwner) Send(m Message) error {
	select {
	case <-w.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case <-w.done:
		return ErrConnectionClosed
	case w.send <- m:
		return nil
	}
}

// Close ends the connection from our side. It is safe to call more than once.
func (w *WsOwner) Close() {
	w.setCloseReason(ErrTerminated)
	select {
	case <-w.done:
		return
	default:
	}
	w.logger.Infoln("closing connection from our side")
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(w.writeTimeout))
	w.teardown()
}

// Done is closed once the connection is gone and its registrations purged.
func (w *WsOwner) Done() <-chan struct{} { return w.done }

// CloseErr explains why the connection ended: ErrTerminated when we closed it,
// an error wrapping ErrConnectionClosed otherwise. It is nil while open.
func (w *WsOwner) CloseErr() error {
	w.reasonMu.Lock()
	defer w.reasonMu.Unlock()
	return w.closeReason
}

func (w *WsOwner) read() {
	defer w.teardown()

	for {
		messageType, bts, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.setCloseReason(errors.Wrap(ErrConnectionClosed, "closed by peer"))
				return
			}
			w.logger.Debugf("error occurred on websocket read: %s", err)
			w.setCloseReason(errors.Wrap(
				ErrConnectionClosed,
				"error occurred on websocket read: "+err.Error(),
			))
			return
		}

		// ReadMessage only surfaces text and binary frames.
		switch messageType {
		case websocket.BinaryMessage:
			w.logger.Debugln("<= [BIN]")
			w.messages.Broadcast(NewBinaryMessage(bts))
		default:
			w.logger.Debugf("<= [DATA] %s", bts)
			w.messages.Broadcast(NewDataMessage(bts))
		}
	}
}

func (w *WsOwner) write() {
	for {
		select {
		case <-w.done:
			return
		case msg := <-w.send:
			if err := w.writeMessage(msg); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					w.setCloseReason(ErrConnectionClosed)
				} else {
					w.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
				}
				w.teardown()
				return
			}
		}
	}
}

func (w *WsOwner) writeMessage(msg Message) error {
	deadline := time.Now().Add(w.writeTimeout)
	_ = w.conn.SetWriteDeadline(deadline)

	switch msg.Type() {
	case PingMessage:
		w.logger.Debugln("=> [PING]")
		return w.conn.WriteControl(websocket.PingMessage, msg.Data(), deadline)
	case PongMessage:
		w.logger.Debugln("=> [PONG]")
		return w.conn.WriteControl(websocket.PongMessage, msg.Data(), deadline)
	case CloseMessage:
		w.logger.Debugln("=> [CLOSE]")
		return w.conn.WriteControl(websocket.CloseMessage, msg.Data(), deadline)
	case BinaryMessage:
		w.logger.Debugln("=> [BIN]")
		return w.conn.WriteMessage(websocket.BinaryMessage, msg.Data())
	default:
		w.logger.Debugf("=> [DATA] %s", msg.Data())
		return w.conn.WriteMessage(websocket.TextMessage, msg.Data())
	}
}

// teardown closes the socket and fires the destruction signal, once.
func (w *WsOwner) teardown() {
	w.closeOnce.Do(func() {
		_ = w.conn.Close()
		close(w.done)
		w.logger.WithField("reason", w.CloseErr()).Debugln("connection gone")
		w.Removed()
	})
}

func (w *WsOwner) setCloseReason(err error) {
	w.reasonMu.Lock()
	defer w.reasonMu.Unlock()
	if w.closeReason == nil {
		w.closeReason = err
	}
}

func dialError(onDial ErrAdapter, u url.URL, conn *websocket.Conn, resp *http.Response, err error) error {
	if onDial != nil {
		return onDial(conn, resp, err)
	}
	if err == nil {
		return nil
	}

	// 1. HTTP errors first
	var msg string
	if resp != nil {
		if resp.Body != nil {
			if bts, readErr := io.ReadAll(resp.Body); readErr == nil {
				msg = string(bts)
			}
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return errors.Wrap(ErrRateLimit, msg)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return WrapErrorUnrecoverableConnection(
				errors.Wrapf(ErrCannotConnect, "%s: %s", resp.Status, msg), u)
		}
	}

	// 2. Network errors
	return errors.Wrap(ErrCannotConnect, err.Error())
}
