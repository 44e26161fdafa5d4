package peripheral

import "github.com/srg/blemidi/internal/midi"

// Event is a stack callback or an engine command. The set is closed: only types in this
// package implement it.
type Event interface {
	event()
}

// RadioStateChanged reports a new hardware/permission state
type RadioStateChanged struct {
	State RadioState
}

// ServicePublished reports the outcome of Stack.AddService
type ServicePublished struct {
	Request uint64
	Err     error
}

// AdvertisingStarted reports the outcome of Stack.Advertise. A later failure of an
// advertisement that already started is reported the same way.
type AdvertisingStarted struct {
	Request uint64
	Err     error
}

// Subscribed reports a central enabling notifications
type Subscribed struct {
	Central string
	Handle  Subscription
}

// Unsubscribed reports a central disabling notifications or going away. Handle is the
// subscription that ended, as delivered in Subscribed.
type Unsubscribed struct {
	Central string
	Handle  Subscription
}

// ReadRequested is a characteristic read; Respond must be called with the value to return
type ReadRequested struct {
	Central string
	Respond func(value []byte)
}

// WriteReceived carries bytes written by a central
type WriteReceived struct {
	Central string
	Data    []byte
}

type startCommand struct{}

type stopCommand struct{}

type sendCommand struct {
	packet midi.Packet
}

type flushCommand struct {
	done chan struct{}
}

func (RadioStateChanged) event()  {}
func (ServicePublished) event()   {}
func (AdvertisingStarted) event() {}
func (Subscribed) event()         {}
func (Unsubscribed) event()       {}
func (ReadRequested) event()      {}
func (WriteReceived) event()      {}
func (startCommand) event()       {}
func (stopCommand) event()        {}
func (sendCommand) event()        {}
func (flushCommand) event()       {}
