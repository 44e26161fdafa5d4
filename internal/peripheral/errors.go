package peripheral

import (
	"errors"
	"fmt"
)

// Stage names the step of the advertising sequence that failed
type Stage string

const (
	StagePublish   Stage = "publish_service"
	StageAdvertise Stage = "advertise"
)

// AdvertiseError is delivered with a failed NotifyAdvertisingStarted
type AdvertiseError struct {
	Stage Stage
	Err   error
}

func (e *AdvertiseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *AdvertiseError) Unwrap() error {
	return e.Err
}

var (
	// ErrRadioNotReady is reported when the radio left PoweredOn while a publish was pending
	ErrRadioNotReady = errors.New("radio not powered on")

	// ErrEngineClosed is returned by Flush after Close
	ErrEngineClosed = errors.New("engine closed")
)
