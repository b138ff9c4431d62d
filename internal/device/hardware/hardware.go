// Package hardware drives MIDI output destinations as a synthesis device.
// Destinations play with their own instrument sets: a soundfont cannot be
// uploaded, so bulk loading is reported and skipped.
package hardware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"go.uber.org/multierr"
)

var (
	// ErrNotOpen is returned by operations that need an open device.
	ErrNotOpen = errors.New("MIDI output not open")
	// ErrTooFewDestinations is returned when a driver cannot provide enough destinations.
	ErrTooFewDestinations = errors.New("not enough MIDI destinations")
	// ErrInvalidDestination is returned by Select for an unknown destination id.
	ErrInvalidDestination = errors.New("invalid MIDI destination")
)

// Driver acquires MIDI destinations for a Device.
type Driver interface {
	Open() error
	// Destinations returns n destinations in lane order, or ErrTooFewDestinations.
	Destinations(n int) ([]lanes.Port, error)
	Close() error
}

// Device implements contracts.Synthesizer over a Driver.
type Device struct {
	mu       sync.Mutex
	name     string
	drv      Driver
	logger   contracts.Logger
	open     bool
	channels []contracts.Channel

	closeOnce sync.Once
	closeErr  error
}

// New creates a closed device. name is used in log entries.
func New(name string, drv Driver, logger contracts.Logger) *Device {
	return &Device{name: name, drv: drv, logger: logger}
}

// Open acquires the driver. Opening an open device does nothing.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil
	}
	if err := d.drv.Open(); err != nil {
		return fmt.Errorf("cannot open %s: %w", d.name, err)
	}
	d.open = true
	d.logger.Info("MIDI output opened", d.logger.Field().String("device", d.name))
	return nil
}

// EnsureCapacity spreads n channels over as many destinations as needed.
func (d *Device) EnsureCapacity(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrNotOpen
	}
	if n <= len(d.channels) {
		return nil
	}
	ports, err := d.drv.Destinations(lanes.Ports(n))
	if err != nil {
		return err
	}
	d.channels = lanes.New(ports, n, d.reportSendError)
	d.logger.Debug("MIDI lanes assigned",
		d.logger.Field().Int("channels", len(d.channels)),
		d.logger.Field().Int("destinations", len(ports)))
	for _, ch := range d.channels {
		if c, ok := ch.(*lanes.Channel); ok {
			d.logger.Debug("MIDI lane",
				d.logger.Field().Int("channel", c.Index()),
				d.logger.Field().Int("destination", c.Lane().Port),
				d.logger.Field().Int("midi_channel", int(c.Lane().Channel)))
		}
	}
	return nil
}

// LoadedInstruments is always empty: destinations do not report their instruments.
func (d *Device) LoadedInstruments() []contracts.InstrumentInfo { return nil }

// UnloadInstrument does nothing: there are no resident instruments to evict.
func (d *Device) UnloadInstrument(contracts.InstrumentInfo) error { return nil }

// LoadAllInstruments only warns, since destinations keep their own instruments.
func (d *Device) LoadAllInstruments(bank contracts.Soundbank) error {
	d.logger.Warn("Soundfont not loaded into MIDI output; destinations use their own instruments",
		d.logger.Field().String("device", d.name),
		d.logger.Field().String("soundfont", bank.Name()))
	return nil
}

// Channels returns a copy of the lanes created by EnsureCapacity.
func (d *Device) Channels() []contracts.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]contracts.Channel(nil), d.channels...)
}

// Latency is unknown for external destinations and reported as zero.
func (d *Device) Latency() time.Duration { return 0 }

// Close silences every channel and releases the destinations.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.open {
			return
		}
		for _, ch := range d.channels {
			ch.AllNotesOff()
		}
		d.open = false
		d.closeErr = d.drv.Close()
		d.logger.Info("MIDI output closed", d.logger.Field().String("device", d.name))
	})
	return d.closeErr
}

func (d *Device) reportSendError(index int, err error) {
	d.logger.Warn("Channel event dropped",
		d.logger.Field().String("device", d.name),
		d.logger.Field().Int("channel", index),
		d.logger.Field().Error("error", err))
}

// Select picks the destinations with the given ids, in order, or the first n
// when ids is empty.
func Select[T any](all []T, ids []int, n int) ([]T, error) {
	if len(ids) == 0 {
		if len(all) < n {
			return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewDestinations, len(all), n)
		}
		return all[:n], nil
	}
	if len(ids) < n {
		return nil, fmt.Errorf("%w: %d selected, need %d", ErrTooFewDestinations, len(ids), n)
	}
	out := make([]T, n)
	for i, id := range ids[:n] {
		if id < 0 || id >= len(all) {
			return nil, fmt.Errorf("%w: destination %d (have %d)", ErrInvalidDestination, id, len(all))
		}
		out[i] = all[id]
	}
	return out, nil
}

// CloseAll closes every closer and combines the errors.
func CloseAll[T interface{ Close() error }](closers []T) error {
	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
