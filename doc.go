// Package libobs is a publish/subscribe registry whose listeners never keep
// their owners alive.
//
// An emitter exposes a Channel. Listeners register callbacks on it on behalf
// of an owner; the channel keys registrations by owner identity while holding
// the owner only weakly. When the emitter broadcasts, every callback of every
// owner still alive is invoked, in first-registration order.
//
// Registrations go away on their own when their owner does:
//
//   - owners that are garbage collected are pruned by the next broadcast;
//   - owners embedding Destructor purge themselves from every channel they
//     joined when Destroy is called;
//   - owners embedding Hosted are purged when their host tears them down,
//     for instance when a context ends or a connection is closed.
//
// Typical usage:
//
//	type Widget struct {
//		libobs.Destructor
//		total int
//	}
//
//	func (w *Widget) OnPrice(price int) { w.total += price }
//
//	prices := libobs.NewChannel[int](libobs.WithName("prices"))
//	w := &Widget{}
//	libobs.Observe(prices, w, (*Widget).OnPrice)
//	prices.Broadcast(5)
//	w.Destroy() // w no longer receives prices
package libobs
