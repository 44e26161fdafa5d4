package testutils

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blemidi/internal/peripheral"
	"github.com/srg/blemidi/internal/testutils/mocks"
	"github.com/stretchr/testify/suite"
)

// EngineSuite runs a peripheral.Engine against a MockStack.
//
//	type MySuite struct {
//	    testutils.EngineSuite
//	}
//
//	func (s *MySuite) TestSomething() {
//	    s.PowerOn()
//	    s.Engine.StartAdvertising()
//	    s.Flush()
//	    s.Equal(peripheral.PublishingService, s.Engine.AdvertisingState())
//	}
//
// Each test gets a fresh engine and stack; SetupTest starts the engine, TearDownTest closes it.
type EngineSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	Stack   *mocks.MockStack
	Engine  *peripheral.Engine
	Options *peripheral.Options

	TestTimeout time.Duration
}

func (s *EngineSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 2 * time.Second
}

func (s *EngineSuite) SetupTest() {
	s.Stack = mocks.NewMockStack()
	s.Engine = peripheral.NewEngine(s.Stack, s.Options, s.Logger)
	s.Require().NoError(s.Engine.Start(context.Background()))
}

func (s *EngineSuite) TearDownTest() {
	if s.Engine != nil {
		s.NoError(s.Engine.Close())
	}
	s.Engine = nil
	s.Stack = nil
}

// Flush waits until the engine has handled everything posted so far.
func (s *EngineSuite) Flush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.TestTimeout)
	defer cancel()
	s.Require().NoError(s.Engine.Flush(ctx), "engine MUST drain its queue")
}

// PowerOn reports the radio as powered on and waits for the engine to see it.
func (s *EngineSuite) PowerOn() {
	s.Stack.Emit(peripheral.RadioStateChanged{State: peripheral.RadioPoweredOn})
	s.Flush()
}

// Advertise drives the engine from Idle to Advertising with successful stack outcomes.
func (s *EngineSuite) Advertise() {
	s.Engine.StartAdvertising()
	s.Flush()
	s.Stack.Emit(peripheral.ServicePublished{Request: s.Stack.LastRequest("AddService")})
	s.Flush()
	s.Stack.Emit(peripheral.AdvertisingStarted{Request: s.Stack.LastRequest("Advertise")})
	s.Flush()
	s.Require().Equal(peripheral.Advertising, s.Engine.AdvertisingState())
}

// Subscribe reports central as subscribed.
func (s *EngineSuite) Subscribe(central string) {
	s.Stack.Emit(peripheral.Subscribed{Central: central, Handle: mocks.Subscription(central)})
	s.Flush()
}

// Unsubscribe reports the subscription made by Subscribe as ended.
func (s *EngineSuite) Unsubscribe(central string) {
	s.Stack.Emit(peripheral.Unsubscribed{Central: central, Handle: mocks.Subscription(central)})
	s.Flush()
}

// DrainNotifications returns every notification currently buffered.
func (s *EngineSuite) DrainNotifications() []peripheral.Notification {
	var out []peripheral.Notification
	for {
		select {
		case n, ok := <-s.Engine.Notifications():
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}

// NotificationsOf filters notifications by kind.
func NotificationsOf(ns []peripheral.Notification, kind peripheral.NotificationKind) []peripheral.Notification {
	var out []peripheral.Notification
	for _, n := range ns {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
