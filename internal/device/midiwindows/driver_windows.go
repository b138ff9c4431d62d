//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// HMIDIOUT is a winmm MIDI output handle.
type HMIDIOUT windows.Handle

// ErrNoMIDIDevices is returned when winmm reports no output devices.
var ErrNoMIDIDevices = errors.New("no MIDI output devices found")

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// Driver sends channel events to winmm MIDI output devices.
type Driver struct {
	logger  contracts.Logger
	ids     []int
	mu      sync.Mutex
	handles []HMIDIOUT
}

// New creates a winmm output device. ids selects devices in lane order;
// when empty, devices are used in system order.
func New(options *contracts.EngineOptions) (*hardware.Device, error) {
	options.Logger.Info("MIDI output created for Windows")
	drv := &Driver{logger: options.Logger, ids: options.DeviceIDs}
	return hardware.New("winmm", drv, options.Logger), nil
}

// ListDevices lists the available MIDI output devices.
func ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// Open checks that at least one output device exists. Devices are opened by Destinations.
func (m *Driver) Open() error {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	if uint32(r0) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return ErrNoMIDIDevices
	}
	return nil
}

// Destinations opens n output devices.
func (m *Driver) Destinations(n int) ([]lanes.Port, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r0, _, _ := procMidiOutGetNumDevs.Call()
	all := make([]int, uint32(r0))
	for i := range all {
		all[i] = i
	}
	selected, err := hardware.Select(all, m.ids, n)
	if err != nil {
		return nil, err
	}

	ports := make([]lanes.Port, n)
	for i, deviceID := range selected {
		if i < len(m.handles) {
			ports[i] = &output{m: m, handle: m.handles[i]}
			continue
		}
		var handle HMIDIOUT
		r1, _, err := procMidiOutOpen.Call(
			uintptr(unsafe.Pointer(&handle)),
			uintptr(deviceID),
			0, 0, 0,
		)
		if r1 != 0 {
			m.logger.Error(fmt.Sprintf("Failed to open MIDI device %d: %v", deviceID, err))
			return nil, fmt.Errorf("failed to open MIDI device %d: %v", deviceID, err)
		}
		m.logger.Info(fmt.Sprintf("MIDI device %d connected", deviceID))
		m.handles = append(m.handles, handle)
		ports[i] = &output{m: m, handle: handle}
	}
	return ports, nil
}

// Close resets and closes every opened device.
func (m *Driver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, h := range m.handles {
		procMidiOutReset.Call(uintptr(h))
		if r1, _, err := procMidiOutClose.Call(uintptr(h)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("failed to close MIDI device: %v", err))
		}
	}
	m.handles = nil
	return errs
}

type output struct {
	m      *Driver
	handle HMIDIOUT
}

// Send packs a channel message into a winmm short message.
func (o *output) Send(msg midi.Message) error {
	data := msg.Bytes()
	var packed uintptr
	for i := 0; i < len(data) && i < 3; i++ {
		packed |= uintptr(data[i]) << (8 * i)
	}
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if r1, _, err := procMidiOutShortMsg.Call(uintptr(o.handle), packed); r1 != 0 {
		return fmt.Errorf("midiOutShortMsg failed: %v", err)
	}
	return nil
}
