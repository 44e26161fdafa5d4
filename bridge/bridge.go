package bridge

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/internal/midi"
	"github.com/srg/blemidi/internal/peripheral"
	"github.com/srg/blemidi/internal/slider"
)

// Bridge is the application-facing face of the peripheral engine: it stamps outgoing
// Control Change values with the current time and exposes the engine state as UI-ready text.
type Bridge struct {
	engine *peripheral.Engine
	clock  midi.Clock
	logger *logrus.Logger
}

// New wraps a started engine. A nil clock uses the system clock.
func New(engine *peripheral.Engine, clock midi.Clock, logger *logrus.Logger) *Bridge {
	if clock == nil {
		clock = midi.SystemClock{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Bridge{
		engine: engine,
		clock:  clock,
		logger: logger,
	}
}

// StartAdvertising asks the engine to publish the MIDI service and advertise. It returns
// without waiting for the outcome.
func (b *Bridge) StartAdvertising() {
	b.engine.StartAdvertising()
}

// StopAdvertising stops advertising and drops every subscribed central.
func (b *Bridge) StopAdvertising() {
	b.engine.StopAdvertising()
}

// Send encodes a Control Change with wire values (channel 0-15, controller and value 0-127)
// and fans it out. With no subscribed centrals nothing is encoded or queued.
func (b *Bridge) Send(channel, controller, value int) {
	if b.engine.ConnectionCount() == 0 {
		return
	}
	b.engine.Send(midi.Encode(channel, controller, value, b.clock.NowMillis()))
}

// SendSlider sends the current value of s.
func (b *Bridge) SendSlider(s slider.Slider) {
	channel, controller, value := s.Wire()
	b.logger.WithFields(logrus.Fields{
		"slider":     s.Label,
		"channel":    channel,
		"controller": controller,
		"value":      value,
	}).Debug("Sending slider value")
	b.Send(channel, controller, value)
}

// Notifications is the engine's notification stream.
func (b *Bridge) Notifications() <-chan peripheral.Notification {
	return b.engine.Notifications()
}

// ConnectionCount returns the number of subscribed centrals.
func (b *Bridge) ConnectionCount() int {
	return b.engine.ConnectionCount()
}

// IsAdvertising reports whether the peripheral is currently advertising.
func (b *Bridge) IsAdvertising() bool {
	return b.engine.IsAdvertising()
}

// RadioState returns the last radio state reported by the stack.
func (b *Bridge) RadioState() peripheral.RadioState {
	return b.engine.RadioState()
}

// Centrals returns the subscribed centrals, sorted by ID.
func (b *Bridge) Centrals() []peripheral.ConnectedCentral {
	return b.engine.Centrals()
}

// Status returns a snapshot of the engine state.
func (b *Bridge) Status() Status {
	return Status{
		Radio:       b.engine.RadioState(),
		Advertising: b.engine.AdvertisingState(),
		Connections: b.engine.ConnectionCount(),
	}
}

// Close stops the engine and its stack.
func (b *Bridge) Close() error {
	return b.engine.Close()
}

// Status is a point-in-time view of the peripheral
type Status struct {
	Radio       peripheral.RadioState
	Advertising peripheral.AdvertisingState
	Connections int
}

func (s Status) IsConnected() bool {
	return s.Connections > 0
}

// Text is the one-word status shown to the user.
func (s Status) Text() string {
	switch s.Radio {
	case peripheral.RadioPoweredOn:
		switch {
		case s.IsConnected():
			return "Connected"
		case s.Advertising == peripheral.Advertising:
			return "Advertising..."
		default:
			return "Ready"
		}
	case peripheral.RadioPoweredOff:
		return "Bluetooth Off"
	case peripheral.RadioUnauthorized:
		return "Unauthorized"
	case peripheral.RadioUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// ConnectionCountText renders the connection count as "1 Device" or "N Devices".
func (s Status) ConnectionCountText() string {
	if s.Connections == 1 {
		return "1 Device"
	}
	return fmt.Sprintf("%d Devices", s.Connections)
}
