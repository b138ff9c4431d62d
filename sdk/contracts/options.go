package contracts

import (
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// Backend names a synthesis device implementation.
type Backend string

const (
	// SoftSynthBackend renders the soundfont in-process and plays it through the system audio output.
	SoftSynthBackend Backend = "softsynth"
	// CoreMIDIBackend sends channel events to CoreMIDI destinations (macOS).
	CoreMIDIBackend Backend = "coremidi"
	// WinMMBackend sends channel events to winmm MIDI output devices (Windows).
	WinMMBackend Backend = "winmm"
	// PortBackend sends channel events to gomidi output ports supplied with WithMIDIOut.
	// Each port carries 15 melodic lanes, so DefaultVoices needs two ports and
	// AdvancedVoices four.
	PortBackend Backend = "port"
	// RecordBackend captures channel events without producing sound.
	RecordBackend Backend = "record"
)

// Loader defaults.
const (
	DefaultSoundfontPath = "./soundset3.sf2"
	DefaultVoices        = 19
	AdvancedVoices       = 50
	DefaultDevicePacing  = time.Millisecond
)

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// SoftSynthConfig holds configuration for the in-process synthesizer.
type SoftSynthConfig struct {
	SampleRate int           // Output sample rate in Hz.
	BlockSize  int           // Synthesizer render block, in frames.
	BufferSize time.Duration // Audio output buffer; also reported as the device latency.
}

// EngineOptions defines the configuration options for the playback engine.
type EngineOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	Debug           bool             // Logs loaded instrument names and device latency.
	SoundfontPath   string           // Soundfont file loaded at startup.
	Backend         Backend          // Device implementation, ignored when Synthesizer is set.
	Synthesizer     Synthesizer      // Caller-supplied device.
	MIDIOuts        []drivers.Out    // Output ports for PortBackend, in lane order.
	DeviceIDs       []int            // Destinations used by hardware backends, in lane order.
	AdvancedMode    bool             // Requests AdvancedVoices channels instead of DefaultVoices.
	DevicePacing    *time.Duration   // Pause after each eviction and channel assignment; zero disables it.
	LoadTimeout     time.Duration    // Bound on the whole load; zero waits forever.
	SongLength      int              // Number of measure lines in a song.
	RecordPath      string           // Standard MIDI File written on Close by RecordBackend.
	OnProgress      ProgressHandler  // Optional load progress observer.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	SoftSynthConfig *SoftSynthConfig // Configuration specific to the in-process synthesizer.
}

// Voices returns the channel capacity the loader requests from the device.
func (o *EngineOptions) Voices() int {
	if o.AdvancedMode {
		return AdvancedVoices
	}
	return DefaultVoices
}

// Option is a function that modifies EngineOptions.
type Option func(*EngineOptions)

// WithLogger sets the logger for the engine.
func WithLogger(l Logger) Option {
	return func(opts *EngineOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the engine.
func WithLogLevel(level LogLevel) Option {
	return func(opts *EngineOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs the default logger to a file.
func WithLogFile(path string) Option {
	return func(opts *EngineOptions) {
		opts.LogFilePath = path
	}
}

// WithDebug enables load diagnostics.
func WithDebug(debug bool) Option {
	return func(opts *EngineOptions) {
		opts.Debug = debug
	}
}

// WithSoundfontPath sets the soundfont file to load.
func WithSoundfontPath(path string) Option {
	return func(opts *EngineOptions) {
		opts.SoundfontPath = path
	}
}

// WithBackend selects the synthesis device implementation.
func WithBackend(b Backend) Option {
	return func(opts *EngineOptions) {
		opts.Backend = b
	}
}

// WithSynthesizer supplies the synthesis device directly.
func WithSynthesizer(s Synthesizer) Option {
	return func(opts *EngineOptions) {
		opts.Synthesizer = s
	}
}

// WithMIDIOut sets the output ports used by PortBackend, in lane order.
func WithMIDIOut(outs ...drivers.Out) Option {
	return func(opts *EngineOptions) {
		opts.MIDIOuts = append([]drivers.Out(nil), outs...)
		if opts.Backend == "" {
			opts.Backend = PortBackend
		}
	}
}

// WithDeviceIDs selects the hardware destinations, in lane order.
func WithDeviceIDs(ids ...int) Option {
	return func(opts *EngineOptions) {
		opts.DeviceIDs = append([]int(nil), ids...)
	}
}

// WithAdvancedMode switches the requested channel capacity to AdvancedVoices.
func WithAdvancedMode(advanced bool) Option {
	return func(opts *EngineOptions) {
		opts.AdvancedMode = advanced
	}
}

// WithDevicePacing sets the device pacing delay. Zero disables pacing.
func WithDevicePacing(d time.Duration) Option {
	return func(opts *EngineOptions) {
		opts.DevicePacing = &d
	}
}

// WithLoadTimeout bounds the whole load. Expiry is reported as a Timeout FatalError.
func WithLoadTimeout(d time.Duration) Option {
	return func(opts *EngineOptions) {
		opts.LoadTimeout = d
	}
}

// WithSongLength sets the number of measure lines the transport cursor may address.
func WithSongLength(lines int) Option {
	return func(opts *EngineOptions) {
		opts.SongLength = lines
	}
}

// WithRecordPath makes RecordBackend export its capture to path when the engine closes.
func WithRecordPath(path string) Option {
	return func(opts *EngineOptions) {
		opts.RecordPath = path
	}
}

// WithProgressHandler registers a load progress observer.
func WithProgressHandler(h ProgressHandler) Option {
	return func(opts *EngineOptions) {
		opts.OnProgress = h
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *EngineOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithSoftSynthConfig sets the in-process synthesizer configuration.
func WithSoftSynthConfig(config SoftSynthConfig) Option {
	return func(opts *EngineOptions) {
		opts.SoftSynthConfig = &config
	}
}
