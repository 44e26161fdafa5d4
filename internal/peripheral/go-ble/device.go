package goble

import (
	"context"

	"github.com/go-ble/ble"
)

// PeripheralDevice is the part of ble.Device the stack drives. Every go-ble backend device
// satisfies it.
type PeripheralDevice interface {
	AddService(svc *ble.Service) error
	RemoveAllServices() error
	AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error
	Stop() error
}

// DeviceFactory creates the platform BLE device (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking as goble.DeviceFactory
var DeviceFactory = newPlatformDevice
