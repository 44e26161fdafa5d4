package peripheral

// RadioState mirrors the hardware/permission state reported by the stack
type RadioState int32

const (
	RadioUnknown RadioState = iota
	RadioUnsupported
	RadioUnauthorized
	RadioPoweredOff
	RadioPoweredOn
)

func (s RadioState) String() string {
	switch s {
	case RadioUnsupported:
		return "unsupported"
	case RadioUnauthorized:
		return "unauthorized"
	case RadioPoweredOff:
		return "powered_off"
	case RadioPoweredOn:
		return "powered_on"
	default:
		return "unknown"
	}
}

// AdvertisingState is the position of the engine in the publish/advertise sequence
type AdvertisingState int32

const (
	Idle AdvertisingState = iota
	PublishingService
	Advertising
)

func (s AdvertisingState) String() string {
	switch s {
	case PublishingService:
		return "publishing_service"
	case Advertising:
		return "advertising"
	default:
		return "idle"
	}
}
