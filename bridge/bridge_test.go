package bridge

import (
	"testing"

	"github.com/srg/blemidi/internal/midi"
	"github.com/srg/blemidi/internal/peripheral"
	"github.com/srg/blemidi/internal/slider"
	"github.com/srg/blemidi/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type BridgeTestSuite struct {
	testutils.EngineSuite

	Bridge *Bridge
}

func TestBridgeTestSuite(t *testing.T) {
	suite.Run(t, new(BridgeTestSuite))
}

func (suite *BridgeTestSuite) SetupTest() {
	suite.EngineSuite.SetupTest()
	suite.Bridge = New(suite.Engine, midi.FixedClock(1000), suite.Logger)
}

func (suite *BridgeTestSuite) TestSend_NoSubscribersIsNoop() {
	// GOAL: Verify Send without subscribers reaches neither the engine nor the stack
	//
	// TEST SCENARIO: advertise, send with zero centrals → no Notify call

	suite.PowerOn()
	suite.Advertise()

	suite.Bridge.Send(0, 7, 100)
	suite.Flush()

	suite.Empty(suite.Stack.NotifiedPackets(), "send with no subscribers MUST NOT notify")
}

func (suite *BridgeTestSuite) TestSend_StampsClock() {
	// GOAL: Verify Send encodes wire values with the bridge clock
	//
	// TEST SCENARIO: fixed clock 1000 ms, one subscriber, Send(0, 1, 0) → 87 E8 B0 01 00

	suite.PowerOn()
	suite.Advertise()
	suite.Subscribe("central-1")

	suite.Bridge.Send(0, 1, 0)
	suite.Flush()

	packets := suite.Stack.NotifiedPackets()
	suite.Require().Len(packets, 1)
	suite.Equal([]byte{0x87, 0xE8, 0xB0, 0x01, 0x00}, packets[0])
}

func (suite *BridgeTestSuite) TestSendSlider_ConvertsUserChannel() {
	// GOAL: Verify slider channel 1..16 is sent as wire channel 0..15
	//
	// TEST SCENARIO: slider ch 16 cc 74 value 64.7 → status byte BF, cc 4A, value 40

	suite.PowerOn()
	suite.Advertise()
	suite.Subscribe("central-1")

	suite.Bridge.SendSlider(slider.New("Cutoff", 16, 74).WithValue(64.7))
	suite.Flush()

	packets := suite.Stack.NotifiedPackets()
	suite.Require().Len(packets, 1)
	cc, err := midi.Decode(packets[0])
	suite.Require().NoError(err)
	suite.Equal(15, cc.Channel)
	suite.Equal(74, cc.Controller)
	suite.Equal(64, cc.Value)
}

func (suite *BridgeTestSuite) TestStatusText() {
	tests := []struct {
		name     string
		status   Status
		expected string
	}{
		{name: "ready", status: Status{Radio: peripheral.RadioPoweredOn}, expected: "Ready"},
		{name: "advertising", status: Status{Radio: peripheral.RadioPoweredOn, Advertising: peripheral.Advertising}, expected: "Advertising..."},
		{name: "publishing is still ready", status: Status{Radio: peripheral.RadioPoweredOn, Advertising: peripheral.PublishingService}, expected: "Ready"},
		{name: "connected wins over advertising", status: Status{Radio: peripheral.RadioPoweredOn, Advertising: peripheral.Advertising, Connections: 2}, expected: "Connected"},
		{name: "powered off", status: Status{Radio: peripheral.RadioPoweredOff, Connections: 1}, expected: "Bluetooth Off"},
		{name: "unauthorized", status: Status{Radio: peripheral.RadioUnauthorized}, expected: "Unauthorized"},
		{name: "unsupported", status: Status{Radio: peripheral.RadioUnsupported}, expected: "Unsupported"},
		{name: "unknown", status: Status{Radio: peripheral.RadioUnknown}, expected: "Unknown"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.expected, tt.status.Text())
		})
	}
}

func (suite *BridgeTestSuite) TestConnectionCountText() {
	suite.Equal("0 Devices", Status{}.ConnectionCountText())
	suite.Equal("1 Device", Status{Connections: 1}.ConnectionCountText())
	suite.Equal("3 Devices", Status{Connections: 3}.ConnectionCountText())
}

func (suite *BridgeTestSuite) TestStatus_TracksEngine() {
	// GOAL: Verify the status snapshot follows the engine through the lifecycle
	//
	// TEST SCENARIO: unknown → ready → advertising → connected → ready after stop

	suite.Equal("Unknown", suite.Bridge.Status().Text())

	suite.PowerOn()
	suite.Equal("Ready", suite.Bridge.Status().Text())
	suite.Equal(peripheral.RadioPoweredOn, suite.Bridge.RadioState())

	suite.Advertise()
	suite.True(suite.Bridge.IsAdvertising())
	suite.Equal("Advertising...", suite.Bridge.Status().Text())

	suite.Subscribe("central-1")
	suite.Subscribe("central-2")
	status := suite.Bridge.Status()
	suite.Equal("Connected", status.Text())
	suite.Equal("2 Devices", status.ConnectionCountText())
	suite.Equal(2, suite.Bridge.ConnectionCount())

	suite.Bridge.StopAdvertising()
	suite.Flush()
	suite.False(suite.Bridge.IsAdvertising())
	suite.Equal("Ready", suite.Bridge.Status().Text())
	suite.Equal(0, suite.Bridge.ConnectionCount())
}

func (suite *BridgeTestSuite) TestNotifications() {
	// GOAL: Verify engine notifications surface through the bridge
	//
	// TEST SCENARIO: power on, advertise, subscribe → radio, advertising started, connected

	suite.PowerOn()
	suite.Advertise()
	suite.Subscribe("AABBCCDD-0011")

	var kinds []peripheral.NotificationKind
	for len(kinds) < 3 {
		n := <-suite.Bridge.Notifications()
		kinds = append(kinds, n.Kind)
		if n.Kind == peripheral.NotifyCentralConnected {
			suite.Equal("AABBCCDD", n.Central.ShortID())
		}
	}
	suite.Equal([]peripheral.NotificationKind{
		peripheral.NotifyRadioStateChanged,
		peripheral.NotifyAdvertisingStarted,
		peripheral.NotifyCentralConnected,
	}, kinds)
}
