// Package otoout plays float32 stereo streams through the system audio device.
package otoout

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const channelCount = 2

// ErrSampleRateMismatch is returned when a second output asks for a different
// sample rate; oto supports a single context per process.
var ErrSampleRateMismatch = errors.New("oto context already created with another sample rate")

var (
	ctxMu   sync.Mutex
	ctx     *oto.Context
	ctxRate int
)

// Output streams one reader to the audio device.
type Output struct {
	ctx     *oto.Context
	player  *oto.Player
	latency time.Duration
}

// New opens the shared oto context (once per process) and returns an output
// with the given device buffer size.
func New(sampleRate int, bufferSize time.Duration) (*Output, error) {
	c, err := sharedContext(sampleRate, bufferSize)
	if err != nil {
		return nil, err
	}
	return &Output{ctx: c, latency: bufferSize}, nil
}

func sharedContext(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctx != nil {
		if ctxRate != sampleRate {
			return nil, fmt.Errorf("%w: have %d, want %d", ErrSampleRateMismatch, ctxRate, sampleRate)
		}
		return ctx, nil
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	ctx, ctxRate = c, sampleRate
	return c, nil
}

// Start begins pulling interleaved float32 little-endian stereo frames from src.
func (o *Output) Start(src io.Reader) error {
	if o.player != nil {
		return nil
	}
	o.player = o.ctx.NewPlayer(src)
	o.player.Play()
	if err := o.player.Err(); err != nil {
		return fmt.Errorf("cannot start oto player: %w", err)
	}
	return nil
}

// Latency is the configured device buffer duration.
func (o *Output) Latency() time.Duration { return o.latency }

// Close stops playback. The shared context stays alive for later outputs.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	p := o.player
	o.player = nil
	if err := p.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
