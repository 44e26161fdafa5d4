package goble

import (
	"errors"
	"strings"

	"github.com/srg/blemidi/internal/peripheral"
)

var (
	// ErrUnsupportedPlatform is returned by DeviceFactory where go-ble has no backend
	ErrUnsupportedPlatform = errors.New("BLE peripheral mode is not supported on this platform")

	// ErrNoDevice is reported for requests issued while no device is open
	ErrNoDevice = errors.New("BLE device not open")
)

// ClassifyOpenError maps a device creation failure to the radio state it implies.
func ClassifyOpenError(err error) peripheral.RadioState {
	if err == nil {
		return peripheral.RadioPoweredOn
	}
	if errors.Is(err, ErrUnsupportedPlatform) {
		return peripheral.RadioUnsupported
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "not permitted"),
		strings.Contains(msg, "permission denied"):
		return peripheral.RadioUnauthorized
	case strings.Contains(msg, "unsupported"),
		strings.Contains(msg, "not supported"),
		strings.Contains(msg, "no such device"):
		return peripheral.RadioUnsupported
	default:
		return peripheral.RadioPoweredOff
	}
}
