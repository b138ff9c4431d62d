// Package softsynth renders a soundfont in-process with meltysynth and plays
// the mix through the audio output. One meltysynth synthesizer serves
// lanes.PerPort channels; more synthesizers are added as capacity grows.
package softsynth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/leandrodaf/playback/internal/audio/otoout"
	"github.com/leandrodaf/playback/internal/device/lanes"
	"github.com/leandrodaf/playback/sdk/contracts"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"
)

const bytesPerFrame = 2 * 4 // stereo float32

var (
	// ErrNotOpen is returned by operations that need an open device.
	ErrNotOpen = errors.New("soft synthesizer not open")
	// ErrUnsupportedBank is returned for banks that do not carry a parsed soundfont.
	ErrUnsupportedBank = errors.New("bank cannot be rendered by the soft synthesizer")
	// ErrNotResident is returned when unloading an instrument that is not loaded.
	ErrNotResident = errors.New("instrument not resident")
)

// synthesizer is the subset of meltysynth.Synthesizer the device drives.
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	Render(left, right []float32)
}

// Output is the audio sink the device renders into.
type Output interface {
	Start(src io.Reader) error
	Latency() time.Duration
	Close() error
}

// soundFonter is implemented by banks the device can render.
type soundFonter interface {
	SoundFont() *meltysynth.SoundFont
}

// newSynthesizer and newOutput are replaced in tests.
var (
	newSynthesizer = func(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (synthesizer, error) {
		return meltysynth.NewSynthesizer(sf, settings)
	}
	newOutput = func(cfg contracts.SoftSynthConfig) (Output, error) {
		return otoout.New(cfg.SampleRate, cfg.BufferSize)
	}
)

// Device implements contracts.Synthesizer.
type Device struct {
	mu       sync.Mutex
	cfg      contracts.SoftSynthConfig
	logger   contracts.Logger
	out      Output
	ports    []*port
	channels []contracts.Channel
	font     *meltysynth.SoundFont
	resident []contracts.InstrumentInfo

	left, right []float32
	mixL, mixR  []float32

	closeOnce sync.Once
	closeErr  error
}

// port feeds one meltysynth synthesizer.
type port struct {
	d     *Device
	synth synthesizer
}

// New creates a closed device.
func New(cfg contracts.SoftSynthConfig, logger contracts.Logger) *Device {
	return &Device{cfg: cfg, logger: logger}
}

// Open starts the audio output. Until instruments are loaded it renders silence.
// Start may pull samples through Read on the calling goroutine, so it runs
// without d.mu held.
func (d *Device) Open() error {
	d.mu.Lock()
	if d.out != nil {
		d.mu.Unlock()
		return nil
	}
	out, err := newOutput(d.cfg)
	if err != nil {
		d.mu.Unlock()
		return fmt.Errorf("cannot open audio output: %w", err)
	}
	d.out = out
	d.mu.Unlock()

	if err := out.Start(d); err != nil {
		d.mu.Lock()
		d.out = nil
		d.mu.Unlock()
		return multierr.Append(fmt.Errorf("cannot start audio output: %w", err), out.Close())
	}
	d.logger.Info("Soft synthesizer opened",
		d.logger.Field().Int("sampleRate", d.cfg.SampleRate),
		d.logger.Field().Duration("buffer", d.cfg.BufferSize))
	return nil
}

// EnsureCapacity grows the number of addressable channels to at least n.
func (d *Device) EnsureCapacity(n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		return ErrNotOpen
	}
	if n <= len(d.channels) {
		return nil
	}
	for len(d.ports) < lanes.Ports(n) {
		p := &port{d: d}
		if d.font != nil {
			s, err := newSynthesizer(d.font, d.settings())
			if err != nil {
				return fmt.Errorf("cannot create synthesizer: %w", err)
			}
			p.synth = s
		}
		d.ports = append(d.ports, p)
	}
	ports := make([]lanes.Port, len(d.ports))
	for i, p := range d.ports {
		ports[i] = p
	}
	d.channels = lanes.New(ports, n, d.reportSendError)
	return nil
}

// LoadedInstruments lists the presets of the resident soundfont.
func (d *Device) LoadedInstruments() []contracts.InstrumentInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]contracts.InstrumentInfo(nil), d.resident...)
}

// UnloadInstrument evicts one instrument. Once nothing is resident the
// synthesizers are released and the device renders silence.
func (d *Device) UnloadInstrument(inst contracts.InstrumentInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.resident {
		if r == inst {
			d.resident = append(d.resident[:i], d.resident[i+1:]...)
			if len(d.resident) == 0 {
				d.font = nil
				for _, p := range d.ports {
					p.synth = nil
				}
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotResident, inst.Name)
}

// LoadAllInstruments builds one synthesizer per port from the bank.
func (d *Device) LoadAllInstruments(bank contracts.Soundbank) error {
	sf, ok := bank.(soundFonter)
	if !ok || sf.SoundFont() == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedBank, bank.Name())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		return ErrNotOpen
	}
	font := sf.SoundFont()
	synths := make([]synthesizer, len(d.ports))
	for i := range d.ports {
		s, err := newSynthesizer(font, d.settings())
		if err != nil {
			return fmt.Errorf("cannot create synthesizer: %w", err)
		}
		synths[i] = s
	}
	for i, p := range d.ports {
		p.synth = synths[i]
	}
	d.font = font
	d.resident = bank.Instruments()
	return nil
}

// Channels returns the synthesizer channels made addressable so far.
func (d *Device) Channels() []contracts.Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]contracts.Channel(nil), d.channels...)
}

// Latency is the audio output buffer duration.
func (d *Device) Latency() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out != nil {
		return d.out.Latency()
	}
	return d.cfg.BufferSize
}

// Close stops the audio output and drops the synthesizers.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		out := d.out
		d.out = nil
		for _, p := range d.ports {
			p.synth = nil
		}
		d.mu.Unlock()
		if out != nil {
			d.closeErr = out.Close()
		}
	})
	return d.closeErr
}

// Read renders interleaved float32 little-endian stereo frames. It is called
// by the audio output goroutine.
func (d *Device) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	d.mu.Lock()
	defer d.mu.Unlock()
	if cap(d.left) < frames {
		d.left, d.right = make([]float32, frames), make([]float32, frames)
		d.mixL, d.mixR = make([]float32, frames), make([]float32, frames)
	}
	left, right := d.left[:frames], d.right[:frames]
	mixL, mixR := d.mixL[:frames], d.mixR[:frames]
	clear(mixL)
	clear(mixR)
	for _, pt := range d.ports {
		if pt.synth == nil {
			continue
		}
		pt.synth.Render(left, right)
		for i := range left {
			mixL[i] += left[i]
			mixR[i] += right[i]
		}
	}
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(mixL[i]))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(mixR[i]))
	}
	return frames * bytesPerFrame, nil
}

func (d *Device) settings() *meltysynth.SynthesizerSettings {
	s := meltysynth.NewSynthesizerSettings(int32(d.cfg.SampleRate))
	if d.cfg.BlockSize > 0 {
		s.BlockSize = int32(d.cfg.BlockSize)
	}
	return s
}

func (d *Device) reportSendError(index int, err error) {
	d.logger.Warn("Channel event dropped",
		d.logger.Field().Int("channel", index),
		d.logger.Field().Error("error", err))
}

// Send dispatches one channel message to the port's synthesizer. Messages for
// a port without resident instruments are discarded.
func (p *port) Send(msg midi.Message) error {
	cmd, ch, d1, d2, err := lanes.Split(msg)
	if err != nil {
		return err
	}
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	if p.synth != nil {
		p.synth.ProcessMidiMessage(int32(ch), int32(cmd), int32(d1), int32(d2))
	}
	return nil
}
