package main

import (
	"errors"
	"fmt"

	"github.com/srg/blemidi/internal/peripheral"
	goble "github.com/srg/blemidi/internal/peripheral/go-ble"
)

// Command-level errors
var (
	// ErrRadioUnavailable indicates the Bluetooth radio can never reach the powered on state
	// in this session (unsupported hardware or missing permission).
	ErrRadioUnavailable = errors.New("bluetooth radio unavailable")

	ErrUsage = errors.New("usage")
)

// FormatUserError turns internal errors into a message suited for the terminal.
func FormatUserError(err error) string {
	var advErr *peripheral.AdvertiseError
	switch {
	case errors.Is(err, goble.ErrUnsupportedPlatform):
		return "BLE peripheral mode is not supported on this platform"
	case errors.Is(err, ErrRadioUnavailable):
		return fmt.Sprintf("%s; check that Bluetooth is available and this process is allowed to use it", err)
	case errors.As(err, &advErr):
		return fmt.Sprintf("advertising failed (%s): %s", advErr.Stage, advErr.Err)
	default:
		return err.Error()
	}
}
