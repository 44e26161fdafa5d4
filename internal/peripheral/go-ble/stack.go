package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/internal/groutine"
	"github.com/srg/blemidi/internal/peripheral"
)

const (
	// DefaultAdvertiseSettle is how long an advertise call must run without failing before
	// advertising is reported as started
	DefaultAdvertiseSettle = 250 * time.Millisecond

	// DefaultOpQueue is the depth of the notification queue. Notifications that do not fit
	// are dropped.
	DefaultOpQueue = 64
)

// Options configures a Stack
type Options struct {
	AdvertiseSettle time.Duration
	OpQueue         int
}

// notifier is the part of ble.Notifier used for fan-out
type notifier interface {
	Context() context.Context
	Write(b []byte) (int, error)
}

// subscription is the live handle of one subscribed central
type subscription struct {
	central string
	n       notifier
}

func (s *subscription) Central() string {
	return s.central
}

// Stack implements peripheral.Stack on top of go-ble.
//
// go-ble calls block, and no Stack method does: AddService and RemoveAllServices are queued
// in order for one worker goroutine, notifications for another (bounded, dropping when full),
// and advertising runs on its own goroutine until stopped. Outcomes are posted to the sink.
type Stack struct {
	logger *logrus.Logger
	opts   Options

	dev  PeripheralDevice
	sink peripheral.EventSink
	ops  chan func()

	svcMu    sync.Mutex
	svcOps   []func()
	svcReady chan struct{}

	mu        sync.Mutex
	advCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStack creates a go-ble backed stack. A nil opts uses the defaults.
func NewStack(opts *Options, logger *logrus.Logger) *Stack {
	if logger == nil {
		logger = logrus.New()
	}
	o := Options{AdvertiseSettle: DefaultAdvertiseSettle, OpQueue: DefaultOpQueue}
	if opts != nil {
		if opts.AdvertiseSettle > 0 {
			o.AdvertiseSettle = opts.AdvertiseSettle
		}
		if opts.OpQueue > 0 {
			o.OpQueue = opts.OpQueue
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Stack{
		logger:   logger,
		opts:     o,
		ops:      make(chan func(), o.OpQueue),
		svcReady: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open creates the BLE device and reports the resulting radio state. A device that cannot
// be created is not an error: it is reported as an unavailable radio.
func (s *Stack) Open(sink peripheral.EventSink) error {
	if sink == nil {
		return fmt.Errorf("event sink is required")
	}
	s.sink = sink

	dev, err := DeviceFactory()
	if err != nil {
		state := ClassifyOpenError(err)
		s.logger.WithFields(logrus.Fields{
			"error": err,
			"radio": state.String(),
		}).Warn("BLE device unavailable")
		s.post(peripheral.RadioStateChanged{State: state})
		return nil
	}
	s.dev = dev

	groutine.Go(s.ctx, "ble-stack-services", s.runServiceOps)
	groutine.Go(s.ctx, "ble-stack-notify", s.runOps)

	s.logger.Debug("BLE device opened")
	s.post(peripheral.RadioStateChanged{State: peripheral.RadioPoweredOn})
	return nil
}

// Close stops advertising and detaches the GATT server.
func (s *Stack) Close() error {
	s.StopAdvertising()
	s.cancel()

	if s.dev == nil {
		return nil
	}
	if err := s.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop BLE device: %w", err)
	}
	return nil
}

func (s *Stack) AddService(request uint64, def peripheral.ServiceDefinition) {
	if s.dev == nil {
		s.post(peripheral.ServicePublished{Request: request, Err: ErrNoDevice})
		return
	}

	svc, err := s.buildService(def)
	if err != nil {
		s.post(peripheral.ServicePublished{Request: request, Err: err})
		return
	}

	s.enqueueService(func() {
		err := s.dev.AddService(svc)
		s.logger.WithFields(logrus.Fields{
			"service": def.ServiceUUID,
			"request": request,
			"error":   err,
		}).Debug("AddService completed")
		s.post(peripheral.ServicePublished{Request: request, Err: err})
	})
}

func (s *Stack) RemoveAllServices() {
	if s.dev == nil {
		return
	}
	s.enqueueService(func() {
		if err := s.dev.RemoveAllServices(); err != nil {
			s.logger.WithError(err).Warn("Failed to remove services")
		}
	})
}

func (s *Stack) Advertise(request uint64, adv peripheral.Advertisement) {
	if s.dev == nil {
		s.post(peripheral.AdvertisingStarted{Request: request, Err: ErrNoDevice})
		return
	}

	uuids := make([]ble.UUID, 0, len(adv.ServiceUUIDs))
	for _, u := range adv.ServiceUUIDs {
		parsed, err := ble.Parse(u)
		if err != nil {
			s.post(peripheral.AdvertisingStarted{Request: request, Err: fmt.Errorf("invalid service UUID %q: %w", u, err)})
			return
		}
		uuids = append(uuids, parsed)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	if s.advCancel != nil {
		s.advCancel()
	}
	s.advCancel = cancel
	s.mu.Unlock()

	done := make(chan error, 1)
	groutine.Go(ctx, "ble-advertise", func(ctx context.Context) {
		done <- s.dev.AdvertiseNameAndServices(ctx, adv.LocalName, uuids...)
	})
	groutine.Go(ctx, "ble-advertise-watch", func(ctx context.Context) {
		s.watchAdvertising(ctx, request, done)
	})
}

// watchAdvertising turns the single blocking advertise call into started/failed events.
// A failure within the settle window is a failed start; after that, advertising is reported
// as started and a later failure is reported as well. Nothing is reported once ctx is done.
func (s *Stack) watchAdvertising(ctx context.Context, request uint64, done <-chan error) {
	timer := time.NewTimer(s.opts.AdvertiseSettle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case err := <-done:
		if ctx.Err() != nil {
			return
		}
		s.post(peripheral.AdvertisingStarted{Request: request, Err: err})
		return
	case <-timer.C:
		s.post(peripheral.AdvertisingStarted{Request: request})
	}

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Error("Advertising ended unexpectedly")
			s.post(peripheral.AdvertisingStarted{Request: request, Err: err})
		}
	}
}

func (s *Stack) StopAdvertising() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advCancel != nil {
		s.advCancel()
		s.advCancel = nil
	}
}

// Notify queues one write per subscription. When the queue is full the notification is
// dropped; a failed write is logged and dropped.
func (s *Stack) Notify(value []byte, subs []peripheral.Subscription) {
	targets := make([]*subscription, 0, len(subs))
	for _, sub := range subs {
		bs, ok := sub.(*subscription)
		if !ok {
			s.logger.WithField("central", sub.Central()).Warn("Foreign subscription handle ignored")
			continue
		}
		targets = append(targets, bs)
	}
	if len(targets) == 0 {
		return
	}

	op := func() {
		for _, t := range targets {
			if _, err := t.n.Write(value); err != nil {
				s.logger.WithFields(logrus.Fields{
					"central": t.central,
					"error":   err,
				}).Debug("Notification dropped")
			}
		}
	}

	select {
	case s.ops <- op:
	default:
		s.logger.WithField("centrals", len(targets)).Debug("Notify queue full, notification dropped")
	}
}

func (s *Stack) buildService(def peripheral.ServiceDefinition) (*ble.Service, error) {
	svcUUID, err := ble.Parse(def.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", def.ServiceUUID, err)
	}
	charUUID, err := ble.Parse(def.CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", def.CharacteristicUUID, err)
	}

	svc := ble.NewService(svcUUID)
	char := svc.NewCharacteristic(charUUID)
	if def.Properties.Has(peripheral.PropRead) {
		char.HandleRead(ble.ReadHandlerFunc(s.serveRead))
	}
	if def.Properties.Has(peripheral.PropWriteWithoutResponse) {
		char.HandleWrite(ble.WriteHandlerFunc(s.serveWrite))
	}
	if def.Properties.Has(peripheral.PropNotify) {
		char.HandleNotify(ble.NotifyHandlerFunc(s.serveNotify))
	}
	// handlers add their own property bits; publish exactly what was asked for
	char.Property = toBLEProperty(def.Properties)

	return svc, nil
}

func toBLEProperty(p peripheral.Property) ble.Property {
	var out ble.Property
	if p.Has(peripheral.PropRead) {
		out |= ble.CharRead
	}
	if p.Has(peripheral.PropWriteWithoutResponse) {
		out |= ble.CharWriteNR
	}
	if p.Has(peripheral.PropNotify) {
		out |= ble.CharNotify
	}
	return out
}

func (s *Stack) serveRead(req ble.Request, rsp ble.ResponseWriter) {
	value := s.readValue(req.Conn().RemoteAddr().String())
	if len(value) == 0 {
		return
	}
	if _, err := rsp.Write(value); err != nil {
		s.logger.WithError(err).Debug("Failed to write read response")
	}
}

// readValue asks the engine for the read response and waits for it.
func (s *Stack) readValue(central string) []byte {
	reply := make(chan []byte, 1)
	s.post(peripheral.ReadRequested{
		Central: central,
		Respond: func(v []byte) { reply <- v },
	})

	select {
	case v := <-reply:
		return v
	case <-s.ctx.Done():
		return nil
	}
}

func (s *Stack) serveWrite(req ble.Request, _ ble.ResponseWriter) {
	data := make([]byte, len(req.Data()))
	copy(data, req.Data())
	s.post(peripheral.WriteReceived{Central: req.Conn().RemoteAddr().String(), Data: data})
}

func (s *Stack) serveNotify(req ble.Request, n ble.Notifier) {
	s.subscribe(req.Conn().RemoteAddr().String(), n)
}

// subscribe reports the central and blocks for the lifetime of its subscription.
func (s *Stack) subscribe(central string, n notifier) {
	sub := &subscription{central: central, n: n}
	s.post(peripheral.Subscribed{Central: central, Handle: sub})

	select {
	case <-n.Context().Done():
	case <-s.ctx.Done():
	}

	s.post(peripheral.Unsubscribed{Central: central, Handle: sub})
}

// enqueueService appends a service operation and returns immediately.
func (s *Stack) enqueueService(op func()) {
	s.svcMu.Lock()
	s.svcOps = append(s.svcOps, op)
	s.svcMu.Unlock()

	select {
	case s.svcReady <- struct{}{}:
	default:
	}
}

func (s *Stack) nextServiceOp() func() {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	if len(s.svcOps) == 0 {
		return nil
	}
	op := s.svcOps[0]
	s.svcOps[0] = nil
	s.svcOps = s.svcOps[1:]
	return op
}

func (s *Stack) runServiceOps(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.svcReady:
			for op := s.nextServiceOp(); op != nil; op = s.nextServiceOp() {
				if ctx.Err() != nil {
					return
				}
				op()
			}
		}
	}
}

func (s *Stack) runOps(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-s.ops:
			op()
		}
	}
}

func (s *Stack) post(ev peripheral.Event) {
	if s.sink != nil {
		s.sink.Post(ev)
	}
}
