//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/sdk/contracts"
)

// ErrUnavailable is returned on systems without CoreMIDI.
var ErrUnavailable = errors.New("CoreMIDI is not available on this platform")

// New fails: CoreMIDI only exists on macOS.
func New(options *contracts.EngineOptions) (*hardware.Device, error) {
	options.Logger.Warn("CoreMIDI backend requested on non-macOS system")
	return nil, ErrUnavailable
}

// ListDevices fails: CoreMIDI only exists on macOS.
func ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}
