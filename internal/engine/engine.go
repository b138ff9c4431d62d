// Package engine ties the transport, the soundfont loader and the playback
// primitives together behind contracts.Engine.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/playback/internal/loader"
	"github.com/leandrodaf/playback/internal/transport"
	"github.com/leandrodaf/playback/sdk/contracts"
	"go.uber.org/multierr"
)

// readBank overrides the loader's soundfont reader when set.
var readBank func(path string) (contracts.Soundbank, error)

// Engine implements contracts.Engine over one synthesis device.
type Engine struct {
	logger    contracts.Logger
	transport *transport.State
	loader    *loader.Loader
	timeout   time.Duration

	result atomic.Pointer[loader.Result]
	ready  chan struct{}
	err    error

	startOnce sync.Once
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	// closers are released after the device, in order.
	closers []func() error
}

// New creates an idle engine. Nothing touches the device until Start.
func New(dev contracts.Synthesizer, opts *contracts.EngineOptions, closers ...func() error) *Engine {
	pacing := contracts.DefaultDevicePacing
	if opts.DevicePacing != nil {
		pacing = *opts.DevicePacing
	}
	cfg := loader.Config{
		SoundfontPath: opts.SoundfontPath,
		Voices:        opts.Voices(),
		Pacing:        pacing,
		Debug:         opts.Debug,
		OnProgress:    opts.OnProgress,
		ReadBank:      readBank,
	}
	return &Engine{
		logger:    opts.Logger,
		transport: transport.New(opts.SongLength),
		loader:    loader.New(dev, cfg, opts.Logger),
		timeout:   opts.LoadTimeout,
		ready:     make(chan struct{}),
		closers:   closers,
	}
}

// Start runs the load pass in the background. Only the first call has an effect.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		pending := e.loader.Start(ctx, e.timeout)
		go func() {
			<-pending.Done()
			res, err := pending.Result(context.Background())
			if err != nil {
				e.err = err
			} else {
				e.result.Store(res)
				if e.closed.Load() {
					_ = res.Close()
				}
			}
			close(e.ready)
		}()
	})
}

// Ready is closed once the load pass has ended, successfully or not.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Wait blocks until the load pass ends and returns its error, or ctx.Err().
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.ready:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stage is the current load stage.
func (e *Engine) Stage() contracts.LoadStage { return e.loader.Stage() }

// LoadStatus is the load completion fraction in [0,1].
func (e *Engine) LoadStatus() float64 { return e.loader.Progress() }

// SetLoadStatus overrides the completion fraction; values outside [0,1] are ignored.
func (e *Engine) SetLoadStatus(progress float64) { e.loader.SetProgress(progress) }

// Synth returns the loaded device, or nil before the engine is ready.
func (e *Engine) Synth() contracts.Synthesizer {
	if res := e.result.Load(); res != nil {
		return res.Synth
	}
	return nil
}

// Channels returns every channel the device exposes, mapped or not.
func (e *Engine) Channels() []contracts.Channel {
	if res := e.result.Load(); res != nil {
		return res.Synth.Channels()
	}
	return nil
}

// Channel returns the channel bound to inst, or nil before the engine is ready.
func (e *Engine) Channel(inst contracts.Instrument) contracts.Channel {
	if res := e.result.Load(); res != nil {
		return res.Map.Channel(inst)
	}
	return nil
}

// PlayNote starts n at full velocity.
func (e *Engine) PlayNote(n contracts.Note, inst contracts.Instrument) {
	e.PlaySoundVelocity(n.PitchIndex, inst, 0, contracts.MaxVelocity)
}

// PlaySound starts pitch+accidental at full velocity.
func (e *Engine) PlaySound(pitch int, inst contracts.Instrument, accidental int) {
	e.PlaySoundVelocity(pitch, inst, accidental, contracts.MaxVelocity)
}

// PlaySoundVelocity starts pitch+accidental on the instrument's channel.
// It does nothing until the engine is ready.
func (e *Engine) PlaySoundVelocity(pitch int, inst contracts.Instrument, accidental, velocity int) {
	if ch := e.Channel(inst); ch != nil {
		ch.NoteOn(pitch+accidental, clampVelocity(velocity))
	}
}

// StopSound releases pitch+accidental.
func (e *Engine) StopSound(pitch int, inst contracts.Instrument, accidental int) {
	if ch := e.Channel(inst); ch != nil {
		ch.NoteOff(pitch + accidental)
	}
}

// StopSoundVelocity releases pitch+accidental with a release velocity.
func (e *Engine) StopSoundVelocity(pitch int, inst contracts.Instrument, accidental, velocity int) {
	if ch := e.Channel(inst); ch != nil {
		ch.NoteOffVelocity(pitch+accidental, clampVelocity(velocity))
	}
}

// StopAll silences every mapped channel.
func (e *Engine) StopAll() {
	res := e.result.Load()
	if res == nil {
		return
	}
	for _, ch := range res.Map.Channels() {
		ch.AllNotesOff()
	}
}

// Transport returns the shared transport state.
func (e *Engine) Transport() contracts.Transport { return e.transport }

// Close releases the device and any resources registered with New. A load
// still in flight closes its device when it completes.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if res := e.result.Load(); res != nil {
			e.closeErr = multierr.Append(e.closeErr, res.Close())
		}
		for _, c := range e.closers {
			e.closeErr = multierr.Append(e.closeErr, c())
		}
		if e.closeErr != nil {
			e.logger.Error("Failed to close engine", e.logger.Field().Error("error", e.closeErr))
		}
	})
	return e.closeErr
}

func clampVelocity(v int) int {
	switch {
	case v < 0:
		return 0
	case v > contracts.MaxVelocity:
		return contracts.MaxVelocity
	}
	return v
}
