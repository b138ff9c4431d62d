package contracts

import (
	"errors"
	"fmt"
)

// State is the current program mode.
type State int

const (
	// Editing is the default mode, in which notes are being placed on the staff.
	Editing State = iota
	// Playing means the song is being played back.
	Playing
	// Looping means the visible section is being played back repeatedly.
	Looping
	// ArrEditing means the arranger is open for editing.
	ArrEditing
	// ArrPlaying means an arrangement is being played back.
	ArrPlaying
	// Menu means a modal menu holds the input focus.
	Menu
)

func (s State) String() string {
	switch s {
	case Editing:
		return "EDITING"
	case Playing:
		return "PLAYING"
	case Looping:
		return "LOOPING"
	case ArrEditing:
		return "ARR_EDITING"
	case ArrPlaying:
		return "ARR_PLAYING"
	case Menu:
		return "MENU"
	}
	return "UNKNOWN"
}

// TimeSignature is the meter the staff is laid out in.
type TimeSignature int

const (
	FourFour TimeSignature = iota
	TwoFour
	ThreeFour
	SixEight
	TwelveEight
)

var timeSignatures = map[TimeSignature][2]uint8{
	FourFour:    {4, 4},
	TwoFour:     {2, 4},
	ThreeFour:   {3, 4},
	SixEight:    {6, 8},
	TwelveEight: {12, 8},
}

// Beats returns the number of beats per measure.
func (t TimeSignature) Beats() uint8 { return timeSignatures[t][0] }

// Unit returns the note value that gets one beat.
func (t TimeSignature) Unit() uint8 { return timeSignatures[t][1] }

func (t TimeSignature) String() string {
	ts, ok := timeSignatures[t]
	if !ok {
		return "?/?"
	}
	return fmt.Sprintf("%d/%d", ts[0], ts[1])
}

// Transport defaults and limits.
const (
	DefaultTempo      = 240.0
	MinTempo          = 1.0
	MaxTempo          = 960.0
	DefaultSongLength = 384 // 96 measures of 4 lines
)

var (
	// ErrTempoOutOfRange is returned when a tempo outside [MinTempo, MaxTempo] is set.
	ErrTempoOutOfRange = errors.New("tempo out of range")
	// ErrMeasureLineOutOfRange is returned when the cursor is moved outside the song.
	ErrMeasureLineOutOfRange = errors.New("measure line out of range")
)

// TransportSnapshot is a copy of every transport field, read in one critical section.
type TransportSnapshot struct {
	State         State
	TimeSignature TimeSignature
	MeasureLine   int
	Tempo         float64
	Shift         bool
	Alt           bool
	Ctrl          bool
}

// Transport is the shared playback/editing state read and mutated by the editor and the sequencer.
type Transport interface {
	State() State
	SetState(s State)
	ResetState()

	TimeSignature() TimeSignature
	SetTimeSignature(t TimeSignature)
	ResetTimeSignature()

	Tempo() float64
	SetTempo(bpm float64) error

	MeasureLine() int
	SetMeasureLine(line int) error
	SongLength() int

	IsShiftPressed() bool
	SetShiftPressed()
	ResetShiftPressed()
	IsAltPressed() bool
	SetAltPressed()
	ResetAltPressed()
	IsCtrlPressed() bool
	SetCtrlPressed()
	ResetCtrlPressed()

	Snapshot() TransportSnapshot
	Reset()
}
