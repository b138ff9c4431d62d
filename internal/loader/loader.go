// Package loader brings a synthesis device from unconfigured to ready to play:
// it reads the soundfont, evicts resident instruments, bulk-loads the bank and
// assigns one channel per logical instrument, publishing progress on the way.
package loader

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/leandrodaf/playback/internal/bank"
	"github.com/leandrodaf/playback/internal/channelmap"
	"github.com/leandrodaf/playback/sdk/contracts"
)

// ErrBusy is returned when a load pass is started while another one is running.
var ErrBusy = errors.New("load already in progress")

// Progress checkpoints of the load pass.
const (
	openedProgress   = 0.1
	unloadedProgress = 0.2
	loadedProgress   = 0.3
	assignShare      = 1 - loadedProgress
)

// Config configures a Loader.
type Config struct {
	SoundfontPath string
	Voices        int
	Pacing        time.Duration
	Debug         bool
	OnProgress    contracts.ProgressHandler
	// ReadBank replaces bank.Load.
	ReadBank func(path string) (contracts.Soundbank, error)
}

// Result is what a successful pass publishes.
type Result struct {
	Synth   contracts.Synthesizer
	Map     *channelmap.Map
	Bank    contracts.Soundbank
	Latency time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Close releases the synthesizer. Later calls return the first result.
func (r *Result) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.Synth.Close()
	})
	return r.closeErr
}

// Loader runs load passes against one device.
type Loader struct {
	dev     contracts.Synthesizer
	cfg     Config
	logger  contracts.Logger
	stage   atomic.Int32
	running atomic.Bool
	// abandoned is set when Start gives up on a pass that is still running.
	abandoned atomic.Bool
	progress  Progress
}

// New creates a loader in the Idle stage.
func New(dev contracts.Synthesizer, cfg Config, logger contracts.Logger) *Loader {
	if cfg.ReadBank == nil {
		cfg.ReadBank = readBank
	}
	if cfg.Voices <= 0 {
		cfg.Voices = contracts.DefaultVoices
	}
	return &Loader{dev: dev, cfg: cfg, logger: logger}
}

func readBank(path string) (contracts.Soundbank, error) {
	b, err := bank.Load(path)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Stage returns the current stage.
func (l *Loader) Stage() contracts.LoadStage {
	return contracts.LoadStage(l.stage.Load())
}

// Progress returns the current completion fraction.
func (l *Loader) Progress() float64 {
	return l.progress.Load()
}

// SetProgress stores v when it lies in [0,1]; other values are ignored.
func (l *Loader) SetProgress(v float64) {
	l.progress.Set(v)
}

// Run performs one load pass synchronously. Every failure is returned as a
// *contracts.FatalError and leaves the device closed.
func (l *Loader) Run(ctx context.Context) (res *Result, err error) {
	if !l.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer l.running.Store(false)

	l.abandoned.Store(false)
	l.progress.reset()
	l.stage.Store(int32(contracts.Idle))
	defer func() {
		if err == nil {
			return
		}
		l.stage.Store(int32(contracts.Failed))
		if cerr := l.dev.Close(); cerr != nil {
			l.logger.Warn("Failed to close device after load failure", l.logger.Field().Error("error", cerr))
		}
		l.logger.Error("Soundfont load failed", l.logger.Field().Error("error", err))
	}()

	p := newPacer(l.cfg.Pacing)

	l.enter(contracts.Opening)
	b, err := l.cfg.ReadBank(l.cfg.SoundfontPath)
	if err != nil {
		return nil, l.fatal(bankKind(err), err)
	}
	l.logBank(b)
	if err := l.dev.Open(); err != nil {
		return nil, l.fatal(contracts.DeviceUnavailable, err)
	}
	if err := l.dev.EnsureCapacity(l.cfg.Voices); err != nil {
		return nil, l.fatal(contracts.DeviceUnavailable, err)
	}
	l.report(openedProgress)

	if err := l.checkpoint(ctx); err != nil {
		return nil, err
	}
	l.enter(contracts.UnloadingDefaults)
	for _, inst := range l.dev.LoadedInstruments() {
		if err := l.dev.UnloadInstrument(inst); err != nil {
			return nil, l.fatal(contracts.DeviceUnavailable, err)
		}
		if err := p.Pause(ctx); err != nil {
			return nil, l.fatal(contracts.Timeout, err)
		}
	}
	l.report(unloadedProgress)

	if err := l.checkpoint(ctx); err != nil {
		return nil, err
	}
	l.enter(contracts.BulkLoading)
	if err := l.dev.LoadAllInstruments(b); err != nil {
		return nil, l.fatal(contracts.MalformedBank, err)
	}
	l.report(loadedProgress)
	if l.cfg.Debug {
		for _, inst := range l.dev.LoadedInstruments() {
			l.logger.Info("Loaded instrument",
				l.logger.Field().String("name", inst.Name),
				l.logger.Field().Int("bank", inst.Bank),
				l.logger.Field().Int("program", inst.Program))
		}
	}

	if err := l.checkpoint(ctx); err != nil {
		return nil, err
	}
	l.enter(contracts.AssigningChannels)
	m, err := l.assign(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := l.checkpoint(ctx); err != nil {
		return nil, err
	}
	latency := l.dev.Latency()
	// An abandoned pass has already been marked Failed and must stay so.
	if !l.stage.CompareAndSwap(int32(contracts.AssigningChannels), int32(contracts.Ready)) {
		return &Result{Synth: l.dev, Map: m, Bank: b, Latency: latency}, nil
	}
	l.report(1)
	if l.cfg.Debug {
		l.logger.Info("Synth latency",
			l.logger.Field().String("latency", durafmt.Parse(latency).String()))
	}
	l.logger.Info("Soundfont loaded",
		l.logger.Field().String("soundfont", b.Name()),
		l.logger.Field().Int("channels", m.Len()))
	return &Result{Synth: l.dev, Map: m, Bank: b, Latency: latency}, nil
}

// assign binds instrument i to channel i: program i, reverb send off.
func (l *Loader) assign(ctx context.Context, p *pacer) (*channelmap.Map, error) {
	m, err := channelmap.Build(l.dev.Channels())
	if err != nil {
		return nil, l.fatal(contracts.DeviceUnavailable, err)
	}
	instruments := contracts.Instruments()
	n := float64(len(instruments))
	for k, inst := range instruments {
		ch := m.Channel(inst)
		ch.ProgramChange(inst.Channel())
		ch.ControlChange(contracts.ReverbController, 0)
		l.report(math.Min(1, loadedProgress+assignShare*float64(k+1)/n))
		l.logger.Debug("Initialized instrument",
			l.logger.Field().String("instrument", inst.String()),
			l.logger.Field().Int("channel", inst.Channel()))
		if err := p.Pause(ctx); err != nil {
			return nil, l.fatal(contracts.Timeout, err)
		}
	}
	return m, nil
}

// Start runs a pass in the background. A positive timeout bounds the whole
// pass; on expiry the pending result fails with a Timeout FatalError even if
// the device is stuck in a blocking call, and the device is closed once that
// call returns.
func (l *Loader) Start(ctx context.Context, timeout time.Duration) *Pending {
	p := &Pending{done: make(chan struct{})}
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	type outcome struct {
		res *Result
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := l.Run(runCtx)
		finished <- outcome{res, err}
	}()

	go func() {
		defer close(p.done)
		defer cancel()
		select {
		case o := <-finished:
			p.res, p.err = o.res, o.err
			return
		case <-runCtx.Done():
		}
		select {
		case o := <-finished:
			p.res, p.err = o.res, o.err
			return
		default:
		}
		l.abandoned.Store(true)
		stage := l.Stage()
		l.stage.Store(int32(contracts.Failed))
		p.err = &contracts.FatalError{Kind: contracts.Timeout, Stage: stage, Err: runCtx.Err()}
		l.logger.Error("Soundfont load abandoned", l.logger.Field().Error("error", p.err))
		go func() {
			if o := <-finished; o.res != nil {
				_ = o.res.Close()
			}
		}()
	}()
	return p
}

// Pending is the one-shot outcome of a background pass.
type Pending struct {
	done chan struct{}
	res  *Result
	err  error
}

// Done is closed when the pass reached Ready or Failed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result blocks until the pass ends or ctx is done.
func (p *Pending) Result(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) enter(s contracts.LoadStage) {
	if l.abandoned.Load() {
		return
	}
	l.stage.Store(int32(s))
	l.logger.Debug("Load stage", l.logger.Field().String("stage", s.String()))
}

func (l *Loader) report(v float64) {
	if l.abandoned.Load() || !l.progress.Set(v) {
		return
	}
	if l.cfg.OnProgress != nil {
		l.cfg.OnProgress(l.Stage(), v)
	}
}

// checkpoint turns a cancelled or expired context into a Timeout failure.
func (l *Loader) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return l.fatal(contracts.Timeout, err)
	}
	return nil
}

func (l *Loader) fatal(kind contracts.FatalKind, err error) error {
	return &contracts.FatalError{Kind: kind, Stage: l.Stage(), Err: err}
}

func (l *Loader) logBank(b contracts.Soundbank) {
	fields := []contracts.Field{
		l.logger.Field().String("soundfont", b.Name()),
		l.logger.Field().Int("presets", len(b.Instruments())),
	}
	if s, ok := b.(interface{ Size() int64 }); ok && s.Size() > 0 {
		fields = append(fields, l.logger.Field().String("size", humanize.Bytes(uint64(s.Size()))))
	}
	l.logger.Info("Soundfont read", fields...)
}

func bankKind(err error) contracts.FatalKind {
	if errors.Is(err, bank.ErrMalformed) {
		return contracts.MalformedBank
	}
	return contracts.BankIO
}
