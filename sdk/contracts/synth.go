package contracts

import "time"

// Channel is a device-level playback lane. Key and velocity values are passed
// to the device as given; out-of-range values are masked to 7 bits on the wire.
type Channel interface {
	NoteOn(key, velocity int)
	NoteOff(key int)
	NoteOffVelocity(key, velocity int)
	ProgramChange(program int)
	ControlChange(controller, value int)
	AllNotesOff()
}

// InstrumentInfo identifies an instrument timbre resident in a device or defined by a soundbank.
type InstrumentInfo struct {
	Name    string
	Bank    int
	Program int
}

// Soundbank is a parsed instrument-bank file.
type Soundbank interface {
	Name() string
	Instruments() []InstrumentInfo
}

// Synthesizer is the audio synthesis device the loader configures.
type Synthesizer interface {
	// Open acquires the device.
	Open() error
	// EnsureCapacity makes at least the given number of channels addressable.
	EnsureCapacity(channels int) error
	// LoadedInstruments lists the instruments currently resident in the device.
	LoadedInstruments() []InstrumentInfo
	// UnloadInstrument evicts one resident instrument.
	UnloadInstrument(inst InstrumentInfo) error
	// LoadAllInstruments makes every instrument of the bank resident.
	LoadAllInstruments(bank Soundbank) error
	// Channels returns the addressable channels, in index order.
	Channels() []Channel
	// Latency is the delay between a channel event and its audible effect.
	Latency() time.Duration
	// Close releases the device.
	Close() error
}
