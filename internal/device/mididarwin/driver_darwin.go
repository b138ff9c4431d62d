//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"github.com/youpy/go-coremidi"
	"gitlab.com/gomidi/midi/v2"
)

// Error definitions for CoreMIDI output issues.
var (
	ErrNoMIDIDevices     = errors.New("no MIDI destinations found")
	ErrCreateOutputPort  = errors.New("error creating output port")
	ErrMIDIClientFailure = errors.New("error creating CoreMIDI client")
)

// Driver sends channel events to CoreMIDI destinations.
type Driver struct {
	logger contracts.Logger
	config *contracts.CoreMIDIConfig
	ids    []int

	mu     sync.Mutex
	open   bool
	client coremidi.Client
	port   coremidi.OutputPort
}

// New creates a CoreMIDI output device. ids selects destinations in lane
// order; when empty, destinations are used in system order.
func New(options *contracts.EngineOptions) (*hardware.Device, error) {
	drv := &Driver{logger: options.Logger, config: options.CoreMIDIConfig, ids: options.DeviceIDs}
	return hardware.New("CoreMIDI", drv, options.Logger), nil
}

// ListDevices retrieves the available MIDI destinations.
func ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		return nil, ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, dest := range destinations {
		entity := dest.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         dest.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// Open creates the CoreMIDI client and its output port.
func (m *Driver) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, err := coremidi.NewClient(m.config.ClientName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIClientFailure, err)
	}
	m.logger.Info("MIDI client successfully created", m.logger.Field().String("client", m.config.ClientName))

	port, err := coremidi.NewOutputPort(client, "Output Port")
	if err != nil {
		m.logger.Error(ErrCreateOutputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	m.client, m.port, m.open = client, port, true
	return nil
}

// Destinations resolves n CoreMIDI destinations.
func (m *Driver) Destinations(n int) ([]lanes.Port, error) {
	all, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if len(all) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	selected, err := hardware.Select(all, m.ids, n)
	if err != nil {
		return nil, err
	}
	ports := make([]lanes.Port, n)
	for i := range selected {
		m.logger.Info("MIDI destination selected",
			m.logger.Field().Int("lane", i),
			m.logger.Field().String("deviceName", selected[i].Name()))
		ports[i] = &destination{m: m, dest: selected[i]}
	}
	return ports, nil
}

// Close stops sending and drops the client and port. go-coremidi has no call
// to dispose either one, so CoreMIDI frees them when the process exits.
func (m *Driver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.client, m.port = coremidi.Client{}, coremidi.OutputPort{}
	return nil
}

type destination struct {
	m    *Driver
	dest coremidi.Destination
}

// Send schedules msg for immediate delivery.
func (d *destination) Send(msg midi.Message) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if !d.m.open {
		return hardware.ErrNotOpen
	}
	packet := coremidi.NewPacket(msg.Bytes(), 0)
	return packet.Send(&d.m.port, &d.dest)
}
