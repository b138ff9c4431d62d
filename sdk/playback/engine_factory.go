package playback

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/playback/internal/device/mididarwin"
	"github.com/leandrodaf/playback/internal/device/midiwindows"
	"github.com/leandrodaf/playback/internal/device/portout"
	"github.com/leandrodaf/playback/internal/device/recorder"
	"github.com/leandrodaf/playback/internal/device/softsynth"
	"github.com/leandrodaf/playback/internal/engine"
	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrUnsupportedBackend is returned for a backend name no initializer handles.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// backendInitializers maps backend names to device initializers. The
// returned closers run when the engine closes, after the device.
var backendInitializers = map[contracts.Backend]func(*contracts.EngineOptions, func() contracts.Transport) (contracts.Synthesizer, []func() error, error){
	contracts.SoftSynthBackend: newSoftSynth,
	contracts.CoreMIDIBackend:  newCoreMIDI,
	contracts.WinMMBackend:     newWinMM,
	contracts.PortBackend:      newPort,
	contracts.RecordBackend:    newRecorder,
}

// NewBackend builds the synthesis device selected by opts and an engine over it.
// A Synthesizer supplied with WithSynthesizer takes precedence over Backend.
func NewBackend(opts *contracts.EngineOptions) (contracts.Engine, error) {
	var eng *engine.Engine
	transport := func() contracts.Transport { return eng.Transport() }

	if opts.Synthesizer != nil {
		eng = engine.New(opts.Synthesizer, opts)
		return eng, nil
	}

	initializer, exists := backendInitializers[opts.Backend]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, opts.Backend)
	}
	dev, closers, err := initializer(opts, transport)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s backend: %w", opts.Backend, err)
	}
	opts.Logger.Info("Playback backend selected", opts.Logger.Field().String("backend", string(opts.Backend)))
	eng = engine.New(dev, opts, closers...)
	return eng, nil
}

func newSoftSynth(opts *contracts.EngineOptions, _ func() contracts.Transport) (contracts.Synthesizer, []func() error, error) {
	return softsynth.New(*opts.SoftSynthConfig, opts.Logger), nil, nil
}

func newCoreMIDI(opts *contracts.EngineOptions, _ func() contracts.Transport) (contracts.Synthesizer, []func() error, error) {
	dev, err := mididarwin.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return dev, nil, nil
}

func newWinMM(opts *contracts.EngineOptions, _ func() contracts.Transport) (contracts.Synthesizer, []func() error, error) {
	dev, err := midiwindows.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return dev, nil, nil
}

func newPort(opts *contracts.EngineOptions, _ func() contracts.Transport) (contracts.Synthesizer, []func() error, error) {
	if len(opts.MIDIOuts) > 0 {
		return portout.New(opts.Logger, opts.MIDIOuts...), nil, nil
	}
	dev, err := portout.FromRegistered(opts.Logger, opts.DeviceIDs)
	if err != nil {
		return nil, nil, err
	}
	return dev, nil, nil
}

func newRecorder(opts *contracts.EngineOptions, transport func() contracts.Transport) (contracts.Synthesizer, []func() error, error) {
	dev := recorder.New(opts.Logger)
	if opts.RecordPath == "" {
		return dev, nil, nil
	}
	path := opts.RecordPath
	export := func() error {
		return dev.WriteFile(path, transport().Snapshot())
	}
	return dev, []func() error{export}, nil
}

// ListDevices returns the destinations a hardware backend can address, in
// the order WithDeviceIDs refers to them.
func ListDevices(backend contracts.Backend) ([]contracts.DeviceInfo, error) {
	switch backend {
	case contracts.CoreMIDIBackend:
		return mididarwin.ListDevices()
	case contracts.WinMMBackend:
		return midiwindows.ListDevices()
	case contracts.PortBackend:
		outs, err := drivers.Outs()
		if err != nil {
			return nil, fmt.Errorf("cannot list MIDI outputs: %w", err)
		}
		devices := make([]contracts.DeviceInfo, len(outs))
		for i, out := range outs {
			devices[i] = contracts.DeviceInfo{Name: out.String(), EntityName: out.String()}
		}
		return devices, nil
	}
	return nil, fmt.Errorf("%w: %s has no devices to list", ErrUnsupportedBackend, backend)
}
