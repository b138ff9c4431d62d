// Package transport holds the editing/playback state shared by the editor and the sequencer.
package transport

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/playback/sdk/contracts"
)

// State implements contracts.Transport. Every field is guarded by one RWMutex,
// so a Snapshot never mixes values from before and after a concurrent write.
type State struct {
	mu         sync.RWMutex
	songLength int
	snap       contracts.TransportSnapshot
}

// New returns a transport in its default state. A non-positive songLength
// selects contracts.DefaultSongLength.
func New(songLength int) *State {
	if songLength <= 0 {
		songLength = contracts.DefaultSongLength
	}
	return &State{songLength: songLength, snap: defaults()}
}

func defaults() contracts.TransportSnapshot {
	return contracts.TransportSnapshot{
		State:         contracts.Editing,
		TimeSignature: contracts.FourFour,
		Tempo:         contracts.DefaultTempo,
	}
}

// State returns the program state.
func (s *State) State() contracts.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State
}

// SetState changes the program state.
func (s *State) SetState(st contracts.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = st
}

// ResetState puts the program back into Editing.
func (s *State) ResetState() {
	s.SetState(contracts.Editing)
}

// TimeSignature returns the current time signature.
func (s *State) TimeSignature() contracts.TimeSignature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.TimeSignature
}

// SetTimeSignature changes the time signature.
func (s *State) SetTimeSignature(t contracts.TimeSignature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.TimeSignature = t
}

// ResetTimeSignature restores 4/4.
func (s *State) ResetTimeSignature() {
	s.SetTimeSignature(contracts.FourFour)
}

// Tempo returns the tempo in beats per minute.
func (s *State) Tempo() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Tempo
}

// SetTempo stores bpm if it lies in [MinTempo, MaxTempo].
func (s *State) SetTempo(bpm float64) error {
	if !(bpm >= contracts.MinTempo && bpm <= contracts.MaxTempo) {
		return fmt.Errorf("%w: %v", contracts.ErrTempoOutOfRange, bpm)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Tempo = bpm
	return nil
}

// MeasureLine returns the cursor position.
func (s *State) MeasureLine() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.MeasureLine
}

// SetMeasureLine moves the cursor if line lies in [0, SongLength()).
func (s *State) SetMeasureLine(line int) error {
	if line < 0 || line >= s.songLength {
		return fmt.Errorf("%w: %d not in [0, %d)", contracts.ErrMeasureLineOutOfRange, line, s.songLength)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.MeasureLine = line
	return nil
}

// SongLength is the number of measure lines, fixed at construction.
func (s *State) SongLength() int { return s.songLength }

// IsShiftPressed reports the Shift latch.
func (s *State) IsShiftPressed() bool { return s.latch(&s.snap.Shift) }

// SetShiftPressed latches Shift.
func (s *State) SetShiftPressed() { s.setLatch(&s.snap.Shift, true) }

// ResetShiftPressed releases Shift.
func (s *State) ResetShiftPressed() { s.setLatch(&s.snap.Shift, false) }

// IsAltPressed reports the Alt latch.
func (s *State) IsAltPressed() bool { return s.latch(&s.snap.Alt) }

// SetAltPressed latches Alt.
func (s *State) SetAltPressed() { s.setLatch(&s.snap.Alt, true) }

// ResetAltPressed releases Alt.
func (s *State) ResetAltPressed() { s.setLatch(&s.snap.Alt, false) }

// IsCtrlPressed reports the Ctrl latch.
func (s *State) IsCtrlPressed() bool { return s.latch(&s.snap.Ctrl) }

// SetCtrlPressed latches Ctrl.
func (s *State) SetCtrlPressed() { s.setLatch(&s.snap.Ctrl, true) }

// ResetCtrlPressed releases Ctrl.
func (s *State) ResetCtrlPressed() { s.setLatch(&s.snap.Ctrl, false) }

func (s *State) latch(field *bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *field
}

func (s *State) setLatch(field *bool, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field = v
}

// Snapshot copies every field in one critical section.
func (s *State) Snapshot() contracts.TransportSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reset restores every field to its default.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = defaults()
}
