package contracts

import "context"

// LoadStage is a state of the soundfont loader.
type LoadStage int32

const (
	Idle LoadStage = iota
	Opening
	UnloadingDefaults
	BulkLoading
	AssigningChannels
	Ready
	Failed
)

func (s LoadStage) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Opening:
		return "OPENING"
	case UnloadingDefaults:
		return "UNLOADING_DEFAULTS"
	case BulkLoading:
		return "BULK_LOADING"
	case AssigningChannels:
		return "ASSIGNING_CHANNELS"
	case Ready:
		return "READY"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// ProgressHandler observes load progress. It is called from the load goroutine.
type ProgressHandler func(stage LoadStage, progress float64)

// Engine is the playback engine: soundfont loading, channel mapping, note
// primitives and the transport state.
type Engine interface {
	// Start begins loading in the background. Later calls are no-ops.
	Start(ctx context.Context)
	// Ready is closed once loading reached Ready or Failed.
	Ready() <-chan struct{}
	// Wait blocks until Ready is closed or ctx is done. It returns the
	// *FatalError of a failed load.
	Wait(ctx context.Context) error

	Stage() LoadStage
	LoadStatus() float64
	SetLoadStatus(progress float64)

	// Synth and Channels are nil until Ready.
	Synth() Synthesizer
	Channels() []Channel
	// Channel returns the channel bound to inst, or nil before Ready.
	Channel(inst Instrument) Channel

	PlayNote(n Note, inst Instrument)
	PlaySound(pitch int, inst Instrument, accidental int)
	PlaySoundVelocity(pitch int, inst Instrument, accidental, velocity int)
	StopSound(pitch int, inst Instrument, accidental int)
	StopSoundVelocity(pitch int, inst Instrument, accidental, velocity int)
	StopAll()

	Transport() Transport

	// Close releases the device. It is safe to call more than once.
	Close() error
}
