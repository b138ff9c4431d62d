package contracts

import (
	"fmt"
	"strings"
)

// Instrument is a logical instrument role. The ordinal of an instrument is also
// the index of the output channel it is bound to.
type Instrument int

// The instrument enumeration, in its natural order.
const (
	Mario Instrument = iota
	Mushroom
	Yoshi
	Star
	Flower
	Gameboy
	Dog
	Cat
	Pig
	Swan
	Face
	Plane
	Boat
	Car
	Heart
	Piranha
	Coin
	ShyGuy
	Boo

	// NumInstruments is the length of the enumeration.
	NumInstruments = iota
)

var instrumentNames = [NumInstruments]string{
	"MARIO", "MUSHROOM", "YOSHI", "STAR", "FLOWER", "GAMEBOY", "DOG", "CAT", "PIG", "SWAN",
	"FACE", "PLANE", "BOAT", "CAR", "HEART", "PIRANHA", "COIN", "SHYGUY", "BOO",
}

// Instruments returns the enumeration in natural order.
func Instruments() []Instrument {
	all := make([]Instrument, NumInstruments)
	for i := range all {
		all[i] = Instrument(i)
	}
	return all
}

// Channel returns the index of the output channel bound to the instrument.
func (i Instrument) Channel() int { return int(i) }

// Valid reports whether i is a member of the enumeration.
func (i Instrument) Valid() bool { return i >= 0 && i < NumInstruments }

func (i Instrument) String() string {
	if !i.Valid() {
		return fmt.Sprintf("Instrument(%d)", int(i))
	}
	return instrumentNames[i]
}

// ParseInstrument resolves an instrument by name, ignoring case.
func ParseInstrument(name string) (Instrument, error) {
	for i, n := range instrumentNames {
		if strings.EqualFold(n, name) {
			return Instrument(i), nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", name)
}

// Note is a staff note. PitchIndex is the MIDI key the note sits on before any accidental.
type Note struct {
	PitchIndex int
}

const (
	// MaxVelocity is the loudest note-on velocity.
	MaxVelocity = 127
	// ReverbController is the control-change number of the reverb send level.
	ReverbController = 91
	// AllNotesOffController is the channel-mode control-change that silences a channel.
	AllNotesOffController = 123
)
