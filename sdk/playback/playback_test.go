package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandrodaf/playback/internal/device/hardware"
	"github.com/leandrodaf/playback/internal/logger"
	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testLogger() contracts.Logger {
	core, _ := observer.New(zapcore.DebugLevel)
	return logger.NewZapLoggerFromCore(core)
}

func TestApplyDefaultOptions(t *testing.T) {
	opts, err := applyDefaultOptions(contracts.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if opts.SoundfontPath != contracts.DefaultSoundfontPath {
		t.Errorf("SoundfontPath = %q", opts.SoundfontPath)
	}
	if opts.Backend != contracts.SoftSynthBackend {
		t.Errorf("Backend = %q", opts.Backend)
	}
	if opts.DevicePacing == nil || *opts.DevicePacing != contracts.DefaultDevicePacing {
		t.Errorf("DevicePacing = %v", opts.DevicePacing)
	}
	if opts.Voices() != contracts.DefaultVoices {
		t.Errorf("Voices() = %d", opts.Voices())
	}
	if opts.SongLength != contracts.DefaultSongLength {
		t.Errorf("SongLength = %d", opts.SongLength)
	}
	if opts.SoftSynthConfig.SampleRate != 44100 || opts.SoftSynthConfig.BufferSize <= 0 {
		t.Errorf("SoftSynthConfig = %+v", *opts.SoftSynthConfig)
	}
	if opts.CoreMIDIConfig == nil || opts.CoreMIDIConfig.ClientName == "" {
		t.Error("expected a default CoreMIDI client name")
	}
}

func TestApplyDefaultOptionsKeepsExplicitValues(t *testing.T) {
	opts, _ := applyDefaultOptions(
		contracts.WithLogger(testLogger()),
		contracts.WithDevicePacing(0),
		contracts.WithAdvancedMode(true),
		contracts.WithSoundfontPath("/tmp/other.sf2"),
		contracts.WithDebug(true),
	)
	if *opts.DevicePacing != 0 {
		t.Errorf("DevicePacing = %v, want 0", *opts.DevicePacing)
	}
	if opts.Voices() != contracts.AdvancedVoices {
		t.Errorf("Voices() = %d", opts.Voices())
	}
	if opts.SoundfontPath != "/tmp/other.sf2" {
		t.Errorf("SoundfontPath = %q", opts.SoundfontPath)
	}
	if opts.LogLevel != contracts.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", opts.LogLevel)
	}
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := NewEngine(contracts.WithLogger(testLogger()), contracts.WithBackend("fluidsynth"))
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("NewEngine = %v, want ErrUnsupportedBackend", err)
	}
	if _, err := ListDevices(contracts.RecordBackend); !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("ListDevices = %v, want ErrUnsupportedBackend", err)
	}
}

func TestMissingSoundfontIsFatal(t *testing.T) {
	eng, err := NewEngine(
		contracts.WithLogger(testLogger()),
		contracts.WithBackend(contracts.RecordBackend),
		contracts.WithSoundfontPath(filepath.Join(t.TempDir(), "missing.sf2")),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = eng.Wait(ctx)
	var fe *contracts.FatalError
	if !errors.As(err, &fe) || fe.Kind != contracts.BankIO || fe.Stage != contracts.Opening {
		t.Fatalf("Wait = %v, want bank i/o failure while opening", err)
	}
	if eng.Channel(contracts.Mario) != nil {
		t.Error("no channel should be mapped after a fatal load")
	}
	if err := eng.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRecordBackendExportsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.mid")
	eng, err := NewEngine(
		contracts.WithLogger(testLogger()),
		contracts.WithBackend(contracts.RecordBackend),
		contracts.WithRecordPath(path),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("recording not written: %v", err)
	}
}

type destinationLogger struct {
	contracts.Logger
	dest  contracts.LogDestination
	paths []string
}

func (l *destinationLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	l.dest = dest
	l.paths = append(l.paths, filePath...)
}

func TestLogFileAppliesToSuppliedLogger(t *testing.T) {
	log := &destinationLogger{Logger: testLogger()}
	opts, err := applyDefaultOptions(
		contracts.WithLogger(log),
		contracts.WithLogFile("/tmp/playback.log"),
	)
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if opts.Logger != contracts.Logger(log) {
		t.Fatal("supplied logger was replaced")
	}
	if log.dest != contracts.FileLog || len(log.paths) != 1 || log.paths[0] != "/tmp/playback.log" {
		t.Errorf("SetDestination = (%v, %v), want (FileLog, [/tmp/playback.log])", log.dest, log.paths)
	}
}

type fakeOut struct {
	name string
	open bool
}

func (o *fakeOut) Open() error             { o.open = true; return nil }
func (o *fakeOut) Close() error            { o.open = false; return nil }
func (o *fakeOut) IsOpen() bool            { return o.open }
func (o *fakeOut) Number() int             { return 0 }
func (o *fakeOut) String() string          { return o.name }
func (o *fakeOut) Underlying() interface{} { return nil }
func (o *fakeOut) Send([]byte) error       { return nil }

func TestPortBackendCapacity(t *testing.T) {
	cases := []struct {
		name  string
		ports int
		err   error
	}{
		{"one port", 1, hardware.ErrTooFewDestinations},
		{"two ports", 2, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outs := make([]drivers.Out, tc.ports)
			for i := range outs {
				outs[i] = &fakeOut{name: fmt.Sprintf("port %d", i)}
			}
			opts, err := applyDefaultOptions(
				contracts.WithLogger(testLogger()),
				contracts.WithMIDIOut(outs...),
			)
			if err != nil {
				t.Fatalf("applyDefaultOptions: %v", err)
			}
			if opts.Backend != contracts.PortBackend {
				t.Fatalf("Backend = %q, want %q", opts.Backend, contracts.PortBackend)
			}

			synth, _, err := newPort(&opts, nil)
			if err != nil {
				t.Fatalf("newPort: %v", err)
			}
			if err := synth.Open(); err != nil {
				t.Fatalf("Open: %v", err)
			}
			err = synth.EnsureCapacity(opts.Voices())
			if !errors.Is(err, tc.err) {
				t.Fatalf("EnsureCapacity(%d) = %v, want %v", opts.Voices(), err, tc.err)
			}
			if tc.err == nil && len(synth.Channels()) < opts.Voices() {
				t.Errorf("Channels = %d, want at least %d", len(synth.Channels()), opts.Voices())
			}
		})
	}
}
