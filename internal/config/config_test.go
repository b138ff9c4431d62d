package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
)

const sample = `
soundfont: /usr/share/sounds/soundset3.sf2
backend: record
advanced: true
pacing: 2ms
load_timeout: 10s
debug: true
log_level: warn
song_length: 96
record_out: take.mid
device_ids: [2, 0]
sample_rate: 48000
buffer: 40ms
`

func TestParseAndApply(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opts, err := f.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}

	var got contracts.EngineOptions
	for _, opt := range opts {
		opt(&got)
	}
	if got.SoundfontPath != "/usr/share/sounds/soundset3.sf2" || got.Backend != contracts.RecordBackend {
		t.Errorf("soundfont/backend = %q/%q", got.SoundfontPath, got.Backend)
	}
	if got.Voices() != contracts.AdvancedVoices {
		t.Errorf("Voices() = %d", got.Voices())
	}
	if got.DevicePacing == nil || *got.DevicePacing != 2*time.Millisecond {
		t.Errorf("DevicePacing = %v", got.DevicePacing)
	}
	if got.LoadTimeout != 10*time.Second || !got.Debug || got.LogLevel != contracts.WarnLevel {
		t.Errorf("timeout/debug/level = %v/%v/%v", got.LoadTimeout, got.Debug, got.LogLevel)
	}
	if got.SongLength != 96 || got.RecordPath != "take.mid" {
		t.Errorf("song length/record = %d/%q", got.SongLength, got.RecordPath)
	}
	if len(got.DeviceIDs) != 2 || got.DeviceIDs[0] != 2 {
		t.Errorf("DeviceIDs = %v", got.DeviceIDs)
	}
	if got.SoftSynthConfig == nil || got.SoftSynthConfig.SampleRate != 48000 || got.SoftSynthConfig.BufferSize != 40*time.Millisecond {
		t.Errorf("SoftSynthConfig = %+v", got.SoftSynthConfig)
	}
}

func TestZeroPacingIsKept(t *testing.T) {
	f, err := Parse(strings.NewReader("pacing: 0s\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opts, _ := f.Options()
	var got contracts.EngineOptions
	for _, opt := range opts {
		opt(&got)
	}
	if got.DevicePacing == nil || *got.DevicePacing != 0 {
		t.Errorf("DevicePacing = %v, want explicit zero", got.DevicePacing)
	}
}

func TestEmptyFile(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opts, err := f.Options()
	if err != nil || len(opts) != 0 {
		t.Errorf("Options = %d options, %v", len(opts), err)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unknown backend", "backend: fluidsynth\n", ErrInvalid},
		{"unknown level", "log_level: loud\n", ErrInvalid},
		{"negative pacing", "pacing: -1ms\n", ErrInvalid},
		{"negative song length", "song_length: -4\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); !errors.Is(err, tt.want) {
				t.Errorf("Parse = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Parse(strings.NewReader("volume: 11\n")); err == nil {
		t.Error("expected unknown keys to be rejected")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playback.yml")
	if err := os.WriteFile(path, []byte("soundfont: a.sf2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Soundfont != "a.sf2" {
		t.Errorf("Soundfont = %q", f.Soundfont)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load missing = %v, want os.ErrNotExist", err)
	}
}

type namedOut struct {
	drivers.Out
	name string
}

func (o namedOut) String() string { return o.name }

func TestPortAcceptsScalarOrList(t *testing.T) {
	orig := findOutPort
	defer func() { findOutPort = orig }()
	findOutPort = func(name string) (drivers.Out, error) {
		if name == "missing" {
			return nil, errors.New("no such port")
		}
		return namedOut{name: name}, nil
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"scalar", "port: IAC Bus 1\n", []string{"IAC Bus 1"}},
		{"list", "port: [IAC Bus 1, IAC Bus 2]\n", []string{"IAC Bus 1", "IAC Bus 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			opts, err := f.Options()
			if err != nil {
				t.Fatalf("Options: %v", err)
			}
			var got contracts.EngineOptions
			for _, opt := range opts {
				opt(&got)
			}
			if got.Backend != contracts.PortBackend {
				t.Errorf("Backend = %q, want %q", got.Backend, contracts.PortBackend)
			}
			if len(got.MIDIOuts) != len(tt.want) {
				t.Fatalf("MIDIOuts = %d, want %d", len(got.MIDIOuts), len(tt.want))
			}
			for i, out := range got.MIDIOuts {
				if out.String() != tt.want[i] {
					t.Errorf("MIDIOuts[%d] = %q, want %q", i, out.String(), tt.want[i])
				}
			}
		})
	}

	f, err := Parse(strings.NewReader("port: [IAC Bus 1, missing]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Options(); err == nil || !strings.Contains(err.Error(), `"missing"`) {
		t.Errorf("Options = %v, want lookup failure for missing", err)
	}
}
