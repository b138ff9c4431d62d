// Package recorder captures channel events without producing sound and
// exports them as a Standard MIDI File.
package recorder

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Resolution is the number of ticks per quarter note in exported files.
const Resolution = 960

var now = time.Now

// Event is one captured channel message.
type Event struct {
	At   time.Duration // since the device was opened
	Port int
	Msg  midi.Message
}

// Device is a recording synthesizer. Channels are laid out as on hardware
// outputs, one SMF track per destination.
type Device struct {
	*hardware.Device
	rec    *driver
	logger contracts.Logger
}

// New creates a closed recorder.
func New(logger contracts.Logger) *Device {
	rec := &driver{}
	return &Device{Device: hardware.New("recorder", rec, logger), rec: rec, logger: logger}
}

// Events returns the captured events in arrival order.
func (d *Device) Events() []Event {
	d.rec.mu.Lock()
	defer d.rec.mu.Unlock()
	return append([]Event(nil), d.rec.events...)
}

// SMF builds a multi-track file: a conductor track with the tempo and meter
// of snap, then one track per destination.
func (d *Device) SMF(snap contracts.TransportSnapshot) (*smf.SMF, error) {
	d.rec.mu.Lock()
	events := append([]Event(nil), d.rec.events...)
	ports := d.rec.ports
	d.rec.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(Resolution)

	var conductor smf.Track
	conductor.Add(0, smf.MetaMeter(snap.TimeSignature.Beats(), snap.TimeSignature.Unit()))
	conductor.Add(0, smf.MetaTempo(snap.Tempo))
	conductor.Close(0)
	if err := sm.Add(conductor); err != nil {
		return nil, fmt.Errorf("cannot add conductor track: %w", err)
	}

	for p := 0; p < ports; p++ {
		var track smf.Track
		var last uint32
		for _, ev := range events {
			if ev.Port != p {
				continue
			}
			at := ticks(ev.At, snap.Tempo)
			track.Add(at-last, ev.Msg)
			last = at
		}
		track.Close(0)
		if err := sm.Add(track); err != nil {
			return nil, fmt.Errorf("cannot add track %d: %w", p, err)
		}
	}
	return sm, nil
}

// WriteFile exports the captured events to path.
func (d *Device) WriteFile(path string, snap contracts.TransportSnapshot) error {
	sm, err := d.SMF(snap)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	d.logger.Info("Recording written",
		d.logger.Field().String("path", path),
		d.logger.Field().Int("events", len(d.Events())))
	return nil
}

// ticks converts an offset to ticks at a constant tempo in quarter notes per minute.
func ticks(at time.Duration, bpm float64) uint32 {
	return uint32(math.Round(at.Minutes() * bpm * Resolution))
}

// driver implements hardware.Driver with in-memory destinations.
type driver struct {
	mu     sync.Mutex
	start  time.Time
	ports  int
	events []Event
}

func (r *driver) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = now()
	r.events = nil
	return nil
}

func (r *driver) Destinations(n int) ([]lanes.Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > r.ports {
		r.ports = n
	}
	out := make([]lanes.Port, n)
	for i := range out {
		out[i] = &port{r: r, index: i}
	}
	return out, nil
}

func (r *driver) Close() error { return nil }

type port struct {
	r     *driver
	index int
}

func (p *port) Send(msg midi.Message) error {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.events = append(p.r.events, Event{At: now().Sub(p.r.start), Port: p.index, Msg: msg})
	return nil
}
