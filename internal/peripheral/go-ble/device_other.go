//go:build !darwin && !linux

package goble

func newPlatformDevice() (PeripheralDevice, error) {
	return nil, ErrUnsupportedPlatform
}
