package libobs

// PanicPolicy decides what a broadcast does when a callback panics. A channel
// applies its policy to every callback alike.
type PanicPolicy int

const (
	// PanicIsolate recovers the panic, logs it with the broadcast value and
	// payload, and carries on with the remaining callbacks.
	PanicIsolate PanicPolicy = iota
	// PanicPropagate lets the panic escape Broadcast. Callbacks after the
	// panicking one are not invoked.
	PanicPropagate
)

func (p PanicPolicy) String() string {
	switch p {
	case PanicIsolate:
		return "isolate"
	case PanicPropagate:
		return "propagate"
	default:
		return "unknown"
	}
}

// Options control channel behavior.
type Options struct {
	// Name labels the channel in logs. Defaults to the channel ID.
	Name string

	// Logger receives diagnostics: owners that cannot announce their
	// destruction, and recovered callback panics. Defaults to NoopLogger.
	Logger Logger

	// PanicPolicy defaults to PanicIsolate.
	PanicPolicy PanicPolicy

	// Resolver assigns owner keys. Each channel gets its own unless one is
	// shared explicitly.
	Resolver *Resolver
}

// Option modifies Options.
type Option func(*Options)

// WithName sets the channel name used in logs.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithLogger sets the diagnostic logger.
func WithLogger(l Logger) Option { return func(o *Options) { o.Logger = l } }

// WithPanicPolicy sets how callback panics are handled.
func WithPanicPolicy(p PanicPolicy) Option { return func(o *Options) { o.PanicPolicy = p } }

// WithResolver shares a Resolver between channels so that an owner gets the
// same key on all of them.
func WithResolver(r *Resolver) Option { return func(o *Options) { o.Resolver = r } }

type observeOptions struct {
	manual bool
}

// ObserveOption modifies a single registration.
type ObserveOption func(*observeOptions)

// Manual declares that the owner will be unregistered explicitly, which
// silences the warning for owners that are not Destructible.
func Manual() ObserveOption { return func(o *observeOptions) { o.manual = true } }
