package peripheral

const (
	// MIDIServiceUUID is the BLE MIDI GATT service
	MIDIServiceUUID = "03B80E5A-EDE8-4B33-A751-6CE34EC4C700"

	// MIDICharacteristicUUID is the BLE MIDI data I/O characteristic
	MIDICharacteristicUUID = "7772E5DB-3868-4112-A1A9-F2669D106BF3"

	// DefaultLocalName is the advertised local name
	DefaultLocalName = "MIDI Controller"
)

// Property is a GATT characteristic property flag
type Property uint8

const (
	PropRead Property = 1 << iota
	PropWriteWithoutResponse
	PropNotify
)

// Has reports whether all bits of p are set.
func (p Property) Has(flag Property) bool {
	return p&flag == flag
}

// ServiceDefinition describes the single-characteristic primary service to publish
type ServiceDefinition struct {
	ServiceUUID        string
	CharacteristicUUID string
	Properties         Property
}

// MIDIService returns the BLE MIDI service definition.
func MIDIService() ServiceDefinition {
	return ServiceDefinition{
		ServiceUUID:        MIDIServiceUUID,
		CharacteristicUUID: MIDICharacteristicUUID,
		Properties:         PropRead | PropWriteWithoutResponse | PropNotify,
	}
}

// Advertisement is the advertising payload
type Advertisement struct {
	LocalName    string
	ServiceUUIDs []string
}

// Subscription is the stack's live handle for one subscribed central
type Subscription interface {
	Central() string
}

// EventSink receives stack events
type EventSink interface {
	Post(ev Event)
}

// Stack is the underlying Bluetooth stack as seen by the engine.
//
// Every method except Open and Close must return without waiting for the radio. Outcomes are
// reported later through the EventSink given to Open. Requests carry an id that the stack
// echoes back in the matching ServicePublished / AdvertisingStarted event.
type Stack interface {
	Open(sink EventSink) error
	AddService(request uint64, def ServiceDefinition)
	Advertise(request uint64, adv Advertisement)
	StopAdvertising()
	RemoveAllServices()
	// Notify sends value to every subscription. Delivery is best effort.
	Notify(value []byte, subs []Subscription)
	Close() error
}
