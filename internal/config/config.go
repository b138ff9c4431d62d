// Package config reads engine settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for settings that parse but cannot be applied.
var ErrInvalid = errors.New("invalid configuration")

// File mirrors the YAML layout. Absent keys keep the engine defaults.
type File struct {
	Soundfont   string         `yaml:"soundfont"`
	Backend     string         `yaml:"backend"`
	Advanced    bool           `yaml:"advanced"`
	Pacing      *time.Duration `yaml:"pacing"`
	LoadTimeout time.Duration  `yaml:"load_timeout"`
	Debug       bool           `yaml:"debug"`
	LogLevel    string         `yaml:"log_level"`
	LogFile     string         `yaml:"log_file"`
	SongLength  int            `yaml:"song_length"`
	RecordOut   string         `yaml:"record_out"`
	// Port selects gomidi outputs whose names contain these strings, in lane order.
	Port       PortNames     `yaml:"port"`
	DeviceIDs  []int         `yaml:"device_ids"`
	ClientName string        `yaml:"client_name"`
	SampleRate int           `yaml:"sample_rate"`
	BlockSize  int           `yaml:"block_size"`
	Buffer     time.Duration `yaml:"buffer"`
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a configuration. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.LogLevel != "" {
		if _, ok := contracts.ParseLogLevel(f.LogLevel); !ok {
			return fmt.Errorf("%w: log_level %q", ErrInvalid, f.LogLevel)
		}
	}
	switch contracts.Backend(f.Backend) {
	case "", contracts.SoftSynthBackend, contracts.CoreMIDIBackend, contracts.WinMMBackend,
		contracts.PortBackend, contracts.RecordBackend:
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, f.Backend)
	}
	if f.Pacing != nil && *f.Pacing < 0 {
		return fmt.Errorf("%w: negative pacing %v", ErrInvalid, *f.Pacing)
	}
	if f.LoadTimeout < 0 {
		return fmt.Errorf("%w: negative load_timeout %v", ErrInvalid, f.LoadTimeout)
	}
	if f.SongLength < 0 {
		return fmt.Errorf("%w: negative song_length %d", ErrInvalid, f.SongLength)
	}
	return nil
}

// Options turns the file into engine options. Only keys present in the file
// produce an option.
func (f *File) Options() ([]contracts.Option, error) {
	var opts []contracts.Option
	if f.Soundfont != "" {
		opts = append(opts, contracts.WithSoundfontPath(f.Soundfont))
	}
	if f.Backend != "" {
		opts = append(opts, contracts.WithBackend(contracts.Backend(f.Backend)))
	}
	if f.Advanced {
		opts = append(opts, contracts.WithAdvancedMode(true))
	}
	if f.Pacing != nil {
		opts = append(opts, contracts.WithDevicePacing(*f.Pacing))
	}
	if f.LoadTimeout > 0 {
		opts = append(opts, contracts.WithLoadTimeout(f.LoadTimeout))
	}
	if f.Debug {
		opts = append(opts, contracts.WithDebug(true))
	}
	if level, ok := contracts.ParseLogLevel(f.LogLevel); ok {
		opts = append(opts, contracts.WithLogLevel(level))
	}
	if f.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(f.LogFile))
	}
	if f.SongLength > 0 {
		opts = append(opts, contracts.WithSongLength(f.SongLength))
	}
	if f.RecordOut != "" {
		opts = append(opts, contracts.WithRecordPath(f.RecordOut))
	}
	if len(f.DeviceIDs) > 0 {
		opts = append(opts, contracts.WithDeviceIDs(f.DeviceIDs...))
	}
	if f.ClientName != "" {
		opts = append(opts, contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: f.ClientName}))
	}
	if f.SampleRate > 0 || f.BlockSize > 0 || f.Buffer > 0 {
		opts = append(opts, contracts.WithSoftSynthConfig(contracts.SoftSynthConfig{
			SampleRate: f.SampleRate,
			BlockSize:  f.BlockSize,
			BufferSize: f.Buffer,
		}))
	}
	if len(f.Port) > 0 {
		outs := make([]drivers.Out, len(f.Port))
		for i, name := range f.Port {
			out, err := findOutPort(name)
			if err != nil {
				return nil, fmt.Errorf("cannot find MIDI output %q: %w", name, err)
			}
			outs[i] = out
		}
		opts = append(opts, contracts.WithMIDIOut(outs...))
	}
	return opts, nil
}

var findOutPort = midi.FindOutPort

// PortNames accepts either a single name or a list of names.
type PortNames []string

// UnmarshalYAML turns a scalar into a one-element list.
func (p *PortNames) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*p = PortNames{value.Value}
		return nil
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	*p = names
	return nil
}
