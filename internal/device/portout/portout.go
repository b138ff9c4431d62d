// Package portout sends channel events to gomidi output ports.
package portout

import (
	"fmt"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Driver implements hardware.Driver over a fixed list of output ports.
type Driver struct {
	outs   []drivers.Out
	opened []drivers.Out
}

// New returns a device sending on outs, in lane order.
func New(logger contracts.Logger, outs ...drivers.Out) *hardware.Device {
	return hardware.New("MIDI port", &Driver{outs: outs}, logger)
}

// FromRegistered selects output ports of the registered gomidi driver by index.
// An empty ids list selects every port in order.
func FromRegistered(logger contracts.Logger, ids []int) (*hardware.Device, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("cannot list MIDI outputs: %w", err)
	}
	if len(ids) > 0 {
		if outs, err = hardware.Select(outs, ids, len(ids)); err != nil {
			return nil, err
		}
	}
	return New(logger, outs...), nil
}

// Open checks that a port was given. Ports are opened by Destinations.
func (d *Driver) Open() error {
	if len(d.outs) == 0 {
		return fmt.Errorf("%w: no output port", hardware.ErrTooFewDestinations)
	}
	return nil
}

// Destinations opens the first n ports.
func (d *Driver) Destinations(n int) ([]lanes.Port, error) {
	outs, err := hardware.Select(d.outs, nil, n)
	if err != nil {
		return nil, err
	}
	ports := make([]lanes.Port, n)
	for i, out := range outs {
		if !out.IsOpen() {
			if err := out.Open(); err != nil {
				return nil, fmt.Errorf("cannot open %s: %w", out.String(), err)
			}
			d.opened = append(d.opened, out)
		}
		ports[i] = port{out}
	}
	return ports, nil
}

// Close closes the ports this driver opened.
func (d *Driver) Close() error {
	err := hardware.CloseAll(d.opened)
	d.opened = nil
	return err
}

type port struct {
	out drivers.Out
}

func (p port) Send(msg midi.Message) error {
	return p.out.Send(msg.Bytes())
}
