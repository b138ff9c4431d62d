//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/sdk/contracts"
)

// ErrUnavailable is returned on systems without winmm.
var ErrUnavailable = errors.New("winmm is not available on this platform")

// New fails: winmm only exists on Windows.
func New(options *contracts.EngineOptions) (*hardware.Device, error) {
	options.Logger.Warn("winmm backend requested on non-Windows system")
	return nil, ErrUnavailable
}

// ListDevices fails: winmm only exists on Windows.
func ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}
