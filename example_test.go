package libobs_test

import (
	"fmt"

	"github.com/sonirico/libobs"
)

type Widget struct {
	libobs.Destructor

	name  string
	total int
}

func (w *Widget) OnPrice(price int) {
	w.total += price
	fmt.Printf("%s got %d, total %d\n", w.name, price, w.total)
}

func (w *Widget) OnQuote(price int, venue string) {
	fmt.Printf("%s got %d from %s\n", w.name, price, venue)
}

func Example() {
	prices := libobs.NewChannel[int](libobs.WithName("prices"))

	w := &Widget{name: "widget"}
	libobs.Observe(prices, w, (*Widget).OnPrice)

	prices.Broadcast(5)
	prices.Broadcast(10)

	w.Destroy()
	prices.Broadcast(100)

	fmt.Println("owners left:", prices.Owners())
	// Output:
	// widget got 5, total 5
	// widget got 10, total 15
	// owners left: 0
}

func ExampleBroadcastPayload() {
	prices := libobs.NewChannel[int]()

	w := &Widget{name: "widget"}
	libobs.Observe(prices, w, (*Widget).OnPrice)
	libobs.ObservePayload(prices, w, (*Widget).OnQuote)

	prices.Broadcast(1)
	libobs.BroadcastPayload(prices, 2, "nyse")
	libobs.BroadcastPayload(prices, 3, 42) // nobody expects an int payload

	w.Destroy()
	// Output:
	// widget got 1, total 1
	// widget got 2 from nyse
}

func ExampleUnregister() {
	prices := libobs.NewChannel[int]()

	w := &Widget{name: "widget"}
	libobs.Observe(prices, w, (*Widget).OnPrice)
	prices.Broadcast(1)

	libobs.Unregister(prices, w, (*Widget).OnPrice)
	prices.Broadcast(2)

	fmt.Println("registrations left:", prices.Len())
	// Output:
	// widget got 1, total 1
	// registrations left: 0
}

type Session struct {
	libobs.Hosted

	id string
}

func (s *Session) OnPrice(price int) {
	fmt.Printf("session %s got %d\n", s.id, price)
}

func ExampleHosted() {
	prices := libobs.NewChannel[int]()

	s := &Session{id: "s1"}
	libobs.Observe(prices, s, (*Session).OnPrice)

	prices.Broadcast(1)

	// The server hosting the session tears it down.
	s.Removed()

	prices.Broadcast(2)
	fmt.Println("owners left:", prices.Owners())
	// Output:
	// session s1 got 1
	// owners left: 0
}
