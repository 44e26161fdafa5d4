package peripheral

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/internal/groutine"
	"github.com/srg/blemidi/internal/midi"
	"github.com/srg/blemidi/internal/ringchan"
)

const (
	// DefaultEventBuffer is the capacity of the engine's event queue
	DefaultEventBuffer = 256

	// DefaultNotificationBuffer is the capacity of the notification ring
	DefaultNotificationBuffer = 64
)

// Options configures an Engine
type Options struct {
	LocalName          string
	EventBuffer        int
	NotificationBuffer int
}

// DefaultOptions returns the standard BLE MIDI options.
func DefaultOptions() *Options {
	return &Options{
		LocalName:          DefaultLocalName,
		EventBuffer:        DefaultEventBuffer,
		NotificationBuffer: DefaultNotificationBuffer,
	}
}

// Engine is the BLE MIDI peripheral lifecycle state machine.
//
// StartAdvertising, StopAdvertising and Send enqueue a command and return without blocking;
// a command that finds the event queue full is dropped. Stack events and
// commands are handled one at a time, in order, by the goroutine started in Start; that
// goroutine is the only writer of the radio state, the advertising state and the table.
type Engine struct {
	stack  Stack
	opts   Options
	logger *logrus.Logger

	events        chan Event
	notifications *ringchan.RingChannel[Notification]
	table         *SubscriptionTable

	radio       atomic.Int32
	advertising atomic.Int32
	dropped     atomic.Uint64

	// owned by the loop goroutine
	intent    bool
	published bool
	pending   uint64
	requestID uint64

	cancel    context.CancelFunc
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewEngine creates an engine bound to stack. RadioState starts Unknown and AdvertisingState
// Idle. A nil opts uses DefaultOptions, a nil logger a fresh logrus logger.
func NewEngine(stack Stack, opts *Options, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	o := DefaultOptions()
	if opts != nil {
		if opts.LocalName != "" {
			o.LocalName = opts.LocalName
		}
		if opts.EventBuffer > 0 {
			o.EventBuffer = opts.EventBuffer
		}
		if opts.NotificationBuffer > 0 {
			o.NotificationBuffer = opts.NotificationBuffer
		}
	}

	e := &Engine{
		stack:         stack,
		opts:          *o,
		logger:        logger,
		events:        make(chan Event, o.EventBuffer),
		notifications: ringchan.New[Notification](o.NotificationBuffer),
		table:         NewSubscriptionTable(),
		stopped:       make(chan struct{}),
	}
	e.radio.Store(int32(RadioUnknown))
	e.advertising.Store(int32(Idle))

	return e
}

// Start launches the event loop and opens the stack. It must be called once before the
// engine does anything; later calls are no-ops.
func (e *Engine) Start(ctx context.Context) error {
	var err error
	e.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		e.cancel = cancel

		groutine.Go(loopCtx, "peripheral-engine", e.run)

		if openErr := e.stack.Open(e); openErr != nil {
			e.logger.WithError(openErr).Error("Failed to open BLE stack")
			err = fmt.Errorf("failed to open BLE stack: %w", openErr)
		}
	})
	return err
}

// Close stops the event loop and the stack. Pending events are discarded.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		// a closed engine can no longer be started
		e.startOnce.Do(func() {})
		if e.cancel != nil {
			e.cancel()
			<-e.stopped
		} else {
			close(e.stopped)
		}
		e.notifications.Close()
		err = e.stack.Close()
	})
	return err
}

// Post enqueues a stack event, waiting for room in the queue. It implements EventSink.
// Stack events are never dropped; the engine goroutine never waits on the stack, so the
// queue always drains.
func (e *Engine) Post(ev Event) {
	select {
	case e.events <- ev:
	case <-e.stopped:
		e.logger.WithField("event", fmt.Sprintf("%T", ev)).Debug("Event dropped, engine closed")
	}
}

// StartAdvertising requests publication of the MIDI service followed by advertising.
func (e *Engine) StartAdvertising() {
	e.submit(startCommand{}, logrus.WarnLevel)
}

// StopAdvertising tears down advertising and the published service.
func (e *Engine) StopAdvertising() {
	e.submit(stopCommand{}, logrus.WarnLevel)
}

// Send fans packet out to every subscribed central. Under a burst that outruns the engine
// the packet is dropped, like a notification the stack cannot queue.
func (e *Engine) Send(packet midi.Packet) {
	e.submit(sendCommand{packet: packet}, logrus.DebugLevel)
}

// DroppedCommands returns how many commands were dropped because the event queue was full.
func (e *Engine) DroppedCommands() uint64 {
	return e.dropped.Load()
}

// submit enqueues a caller command without waiting.
func (e *Engine) submit(ev Event, dropLevel logrus.Level) {
	select {
	case e.events <- ev:
		return
	default:
	}

	select {
	case <-e.stopped:
		e.logger.WithField("event", fmt.Sprintf("%T", ev)).Debug("Command dropped, engine closed")
	default:
		n := e.dropped.Add(1)
		e.logger.WithFields(logrus.Fields{
			"event":   fmt.Sprintf("%T", ev),
			"dropped": n,
		}).Log(dropLevel, "Event queue full, command dropped")
	}
}

// Flush waits until every event posted before the call has been handled.
func (e *Engine) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case e.events <- flushCommand{done: done}:
	case <-e.stopped:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-e.stopped:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notifications delivers state changes to the owner. When the consumer falls behind the
// oldest notifications are overwritten. The channel is closed by Close.
func (e *Engine) Notifications() <-chan Notification {
	return e.notifications.C()
}

// RadioState returns the last radio state reported by the stack.
func (e *Engine) RadioState() RadioState {
	return RadioState(e.radio.Load())
}

// AdvertisingState returns the current lifecycle state.
func (e *Engine) AdvertisingState() AdvertisingState {
	return AdvertisingState(e.advertising.Load())
}

// IsAdvertising reports whether the engine is in the Advertising state.
func (e *Engine) IsAdvertising() bool {
	return e.AdvertisingState() == Advertising
}

// ConnectionCount returns the number of subscribed centrals.
func (e *Engine) ConnectionCount() int {
	return e.table.Len()
}

// IsConnected reports whether at least one central is subscribed.
func (e *Engine) IsConnected() bool {
	return e.table.Len() > 0
}

// Centrals returns a snapshot of subscribed centrals.
func (e *Engine) Centrals() []ConnectedCentral {
	return e.table.Centrals()
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.stopped)

	e.logger.Debug("Peripheral engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("Peripheral engine stopped")
			return
		case ev := <-e.events:
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev Event) {
	switch ev := ev.(type) {
	case startCommand:
		e.startAdvertising()
	case stopCommand:
		e.stopAdvertising()
	case sendCommand:
		e.dispatch(ev.packet)
	case flushCommand:
		close(ev.done)
	case RadioStateChanged:
		e.onRadioState(ev)
	case ServicePublished:
		e.onServicePublished(ev)
	case AdvertisingStarted:
		e.onAdvertisingStarted(ev)
	case Subscribed:
		e.onSubscribed(ev)
	case Unsubscribed:
		e.onUnsubscribed(ev)
	case ReadRequested:
		if ev.Respond != nil {
			ev.Respond([]byte{})
		}
	case WriteReceived:
		e.logger.WithFields(logrus.Fields{
			"central": ConnectedCentral{ID: ev.Central}.ShortID(),
			"bytes":   len(ev.Data),
		}).Debug("Ignoring write from central")
	default:
		e.logger.WithField("event", fmt.Sprintf("%T", ev)).Warn("Unhandled event")
	}
}

func (e *Engine) setAdvertising(s AdvertisingState) {
	prev := AdvertisingState(e.advertising.Swap(int32(s)))
	if prev != s {
		e.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   s.String(),
		}).Debug("Advertising state changed")
	}
}

func (e *Engine) emit(n Notification) {
	if e.notifications.Send(n) {
		e.logger.WithField("kind", n.Kind.String()).Debug("Notification buffer full, oldest dropped")
	}
}

func (e *Engine) startAdvertising() {
	if radio := e.RadioState(); radio != RadioPoweredOn {
		e.logger.WithField("radio", radio.String()).Debug("Start advertising ignored, radio not powered on")
		return
	}
	if state := e.AdvertisingState(); state != Idle {
		e.logger.WithField("state", state.String()).Debug("Start advertising ignored, already in progress")
		return
	}

	e.requestID++
	e.pending = e.requestID
	e.intent = true
	e.setAdvertising(PublishingService)

	e.logger.WithField("request", e.pending).Info("Publishing BLE MIDI service...")
	e.stack.AddService(e.pending, MIDIService())
}

func (e *Engine) onServicePublished(ev ServicePublished) {
	if !e.intent || ev.Request != e.pending {
		e.logger.WithField("request", ev.Request).Debug("Ignoring stale service publish result")
		return
	}
	e.intent = false

	if ev.Err != nil {
		e.logger.WithError(ev.Err).Error("Failed to publish BLE MIDI service")
		e.pending = 0
		e.setAdvertising(Idle)
		e.emit(Notification{Kind: NotifyAdvertisingStarted, Err: &AdvertiseError{Stage: StagePublish, Err: ev.Err}})
		return
	}

	e.published = true

	if e.RadioState() != RadioPoweredOn {
		e.logger.Warn("Radio left powered on state while publishing, not advertising")
		e.teardown()
		e.emit(Notification{Kind: NotifyAdvertisingStarted, Err: &AdvertiseError{Stage: StagePublish, Err: ErrRadioNotReady}})
		return
	}

	e.setAdvertising(Advertising)
	e.logger.WithField("name", e.opts.LocalName).Info("Starting BLE MIDI advertising...")
	e.stack.Advertise(e.pending, Advertisement{
		LocalName:    e.opts.LocalName,
		ServiceUUIDs: []string{MIDIServiceUUID},
	})
}

func (e *Engine) onAdvertisingStarted(ev AdvertisingStarted) {
	if ev.Request != e.pending || e.AdvertisingState() != Advertising {
		e.logger.WithField("request", ev.Request).Debug("Ignoring stale advertising result")
		return
	}

	if ev.Err != nil {
		e.logger.WithError(ev.Err).Error("BLE MIDI advertising failed")
		e.teardown()
		e.emit(Notification{Kind: NotifyAdvertisingStarted, Err: &AdvertiseError{Stage: StageAdvertise, Err: ev.Err}})
		return
	}

	e.logger.Info("BLE MIDI advertising started")
	e.emit(Notification{Kind: NotifyAdvertisingStarted})
}

func (e *Engine) stopAdvertising() {
	e.logger.WithField("state", e.AdvertisingState().String()).Info("Stopping BLE MIDI advertising")
	e.stack.StopAdvertising()
	e.teardown()
}

// teardown removes the published service and resets local state. The table is cleared in
// bulk: no per-central disconnect notifications are emitted.
func (e *Engine) teardown() {
	e.stack.RemoveAllServices()
	e.intent = false
	e.pending = 0
	e.published = false
	if n := e.table.Clear(); n > 0 {
		e.logger.WithField("centrals", n).Debug("Subscription table cleared")
	}
	e.setAdvertising(Idle)
}

func (e *Engine) onRadioState(ev RadioStateChanged) {
	prev := RadioState(e.radio.Swap(int32(ev.State)))
	e.logger.WithFields(logrus.Fields{
		"from": prev.String(),
		"to":   ev.State.String(),
	}).Info("Radio state changed")
	e.emit(Notification{Kind: NotifyRadioStateChanged, Radio: ev.State})
}

func (e *Engine) onSubscribed(ev Subscribed) {
	central := ConnectedCentral{ID: ev.Central}
	if !e.table.Put(ev.Central, ev.Handle) {
		e.logger.WithField("central", central.ShortID()).Debug("Central re-subscribed, handle replaced")
		return
	}

	e.logger.WithFields(logrus.Fields{
		"central": central.ShortID(),
		"count":   e.table.Len(),
	}).Info("Central subscribed")
	e.emit(Notification{Kind: NotifyCentralConnected, Central: central})
}

func (e *Engine) onUnsubscribed(ev Unsubscribed) {
	central, ok := e.table.Remove(ev.Central, ev.Handle)
	if !ok {
		e.logger.WithField("central", ConnectedCentral{ID: ev.Central}.ShortID()).Debug("Ignoring unsubscribe from unknown central or replaced subscription")
		return
	}

	e.logger.WithFields(logrus.Fields{
		"central": central.ShortID(),
		"count":   e.table.Len(),
	}).Info("Central unsubscribed")
	e.emit(Notification{Kind: NotifyCentralDisconnected, Central: central})
}

func (e *Engine) dispatch(packet midi.Packet) {
	if !e.published || e.table.Len() == 0 {
		return
	}

	handles := e.table.Handles()
	e.logger.WithFields(logrus.Fields{
		"packet":   packet.String(),
		"centrals": len(handles),
	}).Debug("Sending MIDI packet")
	e.stack.Notify(packet.Bytes(), handles)
}
