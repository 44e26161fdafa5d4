package peripheral

// NotificationKind tells which field of a Notification is meaningful
type NotificationKind int

const (
	NotifyRadioStateChanged NotificationKind = iota
	NotifyAdvertisingStarted
	NotifyCentralConnected
	NotifyCentralDisconnected
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyRadioStateChanged:
		return "radio_state_changed"
	case NotifyAdvertisingStarted:
		return "advertising_started"
	case NotifyCentralConnected:
		return "central_connected"
	case NotifyCentralDisconnected:
		return "central_disconnected"
	default:
		return "unknown"
	}
}

// Notification is what the engine tells its owner.
//
//   - NotifyRadioStateChanged: Radio
//   - NotifyAdvertisingStarted: Err (nil on success)
//   - NotifyCentralConnected, NotifyCentralDisconnected: Central
type Notification struct {
	Kind    NotificationKind
	Radio   RadioState
	Err     error
	Central ConnectedCentral
}
