package mocks

import (
	"sync"

	"github.com/srg/blemidi/internal/peripheral"
	"github.com/stretchr/testify/mock"
)

// MockStack implements peripheral.Stack with testify/mock. Open records the sink so tests can
// play the role of the Bluetooth stack through Emit.
type MockStack struct {
	mock.Mock

	mu   sync.Mutex
	sink peripheral.EventSink

	gate    chan struct{}
	entered chan struct{}
}

// NewMockStack returns a MockStack that accepts every call.
func NewMockStack() *MockStack {
	m := &MockStack{}
	m.On("Open", mock.Anything).Return(nil).Maybe()
	m.On("AddService", mock.Anything, mock.Anything).Return().Maybe()
	m.On("Advertise", mock.Anything, mock.Anything).Return().Maybe()
	m.On("StopAdvertising").Return().Maybe()
	m.On("RemoveAllServices").Return().Maybe()
	m.On("Notify", mock.Anything, mock.Anything).Return().Maybe()
	m.On("Close").Return(nil).Maybe()
	return m
}

func (m *MockStack) Open(sink peripheral.EventSink) error {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
	args := m.Called(sink)
	return args.Error(0)
}

func (m *MockStack) AddService(request uint64, def peripheral.ServiceDefinition) {
	m.Called(request, def)

	m.mu.Lock()
	gate, entered := m.gate, m.entered
	m.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case entered <- struct{}{}:
	default:
	}
	<-gate
}

// HoldAddService makes AddService block its caller until release is called. entered
// receives once per blocked call.
func (m *MockStack) HoldAddService() (entered <-chan struct{}, release func()) {
	gate := make(chan struct{})
	in := make(chan struct{}, 16)

	m.mu.Lock()
	m.gate = gate
	m.entered = in
	m.mu.Unlock()

	var once sync.Once
	return in, func() {
		once.Do(func() {
			m.mu.Lock()
			m.gate = nil
			m.mu.Unlock()
			close(gate)
		})
	}
}

func (m *MockStack) Advertise(request uint64, adv peripheral.Advertisement) {
	m.Called(request, adv)
}

func (m *MockStack) StopAdvertising() {
	m.Called()
}

func (m *MockStack) RemoveAllServices() {
	m.Called()
}

func (m *MockStack) Notify(value []byte, subs []peripheral.Subscription) {
	m.Called(value, subs)
}

func (m *MockStack) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Emit delivers ev to the sink registered by Open.
func (m *MockStack) Emit(ev peripheral.Event) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink == nil {
		panic("MockStack.Emit: Open was not called")
	}
	sink.Post(ev)
}

// LastRequest returns the request id of the most recent call to method, or 0.
func (m *MockStack) LastRequest(method string) uint64 {
	var id uint64
	for _, call := range m.CallsTo(method) {
		if len(call.Arguments) > 0 {
			if v, ok := call.Arguments.Get(0).(uint64); ok {
				id = v
			}
		}
	}
	return id
}

// CallsTo returns the recorded calls of method. Callers must have synchronized with the
// engine (Flush or Eventually) before reading.
func (m *MockStack) CallsTo(method string) []mock.Call {
	var out []mock.Call
	for _, call := range m.Calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// NotifiedPackets returns the values passed to Notify, in call order.
func (m *MockStack) NotifiedPackets() [][]byte {
	var out [][]byte
	for _, call := range m.CallsTo("Notify") {
		out = append(out, call.Arguments.Get(0).([]byte))
	}
	return out
}

// Subscription is a minimal peripheral.Subscription for tests
type Subscription string

func (s Subscription) Central() string { return string(s) }
