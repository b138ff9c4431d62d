package transport

import (
	"errors"
	"sync"
	"testing"

	"github.com/leandrodaf/playback/sdk/contracts"
)

func TestDefaults(t *testing.T) {
	s := New(0)
	want := contracts.TransportSnapshot{
		State:         contracts.Editing,
		TimeSignature: contracts.FourFour,
		Tempo:         240,
	}
	if got := s.Snapshot(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
	if s.SongLength() != contracts.DefaultSongLength {
		t.Fatalf("SongLength() = %d", s.SongLength())
	}
	if s.IsShiftPressed() || s.IsAltPressed() || s.IsCtrlPressed() {
		t.Fatal("modifier latches should start released")
	}
}

func TestStateAndTimeSignatureReset(t *testing.T) {
	s := New(0)
	s.SetState(contracts.Playing)
	s.SetTimeSignature(contracts.ThreeFour)
	if s.State() != contracts.Playing || s.TimeSignature() != contracts.ThreeFour {
		t.Fatalf("setters not applied: %+v", s.Snapshot())
	}
	s.ResetState()
	s.ResetTimeSignature()
	if s.State() != contracts.Editing || s.TimeSignature() != contracts.FourFour {
		t.Fatalf("resets not applied: %+v", s.Snapshot())
	}
}

func TestTempoRange(t *testing.T) {
	s := New(0)
	tests := []struct {
		bpm     float64
		wantErr bool
	}{
		{120, false},
		{contracts.MinTempo, false},
		{contracts.MaxTempo, false},
		{0, true},
		{-10, true},
		{contracts.MaxTempo + 1, true},
	}
	for _, tt := range tests {
		before := s.Tempo()
		err := s.SetTempo(tt.bpm)
		if tt.wantErr {
			if !errors.Is(err, contracts.ErrTempoOutOfRange) {
				t.Errorf("SetTempo(%v) err = %v, want ErrTempoOutOfRange", tt.bpm, err)
			}
			if s.Tempo() != before {
				t.Errorf("SetTempo(%v) changed tempo to %v", tt.bpm, s.Tempo())
			}
			continue
		}
		if err != nil || s.Tempo() != tt.bpm {
			t.Errorf("SetTempo(%v) = %v, tempo %v", tt.bpm, err, s.Tempo())
		}
	}
}

func TestMeasureLineRange(t *testing.T) {
	s := New(8)
	if err := s.SetMeasureLine(7); err != nil || s.MeasureLine() != 7 {
		t.Fatalf("SetMeasureLine(7) = %v, line %d", err, s.MeasureLine())
	}
	for _, line := range []int{-1, 8, 100} {
		if err := s.SetMeasureLine(line); !errors.Is(err, contracts.ErrMeasureLineOutOfRange) {
			t.Errorf("SetMeasureLine(%d) err = %v", line, err)
		}
	}
	if s.MeasureLine() != 7 {
		t.Fatalf("out-of-range writes changed the cursor to %d", s.MeasureLine())
	}
}

func TestModifierLatches(t *testing.T) {
	s := New(0)
	s.SetShiftPressed()
	s.SetAltPressed()
	s.SetCtrlPressed()
	if !s.IsShiftPressed() || !s.IsAltPressed() || !s.IsCtrlPressed() {
		t.Fatal("latches should be set")
	}
	s.ResetShiftPressed()
	s.ResetAltPressed()
	s.ResetCtrlPressed()
	if s.IsShiftPressed() || s.IsAltPressed() || s.IsCtrlPressed() {
		t.Fatal("reset should release the latches")
	}
}

func TestReset(t *testing.T) {
	s := New(0)
	s.SetState(contracts.Menu)
	_ = s.SetTempo(100)
	_ = s.SetMeasureLine(12)
	s.SetCtrlPressed()
	s.Reset()
	if got := s.Snapshot(); got != defaults() {
		t.Fatalf("Reset() left %+v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.SetTempo(float64(60 + i))
				_ = s.SetMeasureLine(j % s.SongLength())
				s.SetState(contracts.Playing)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := s.Snapshot()
				if snap.Tempo < contracts.MinTempo || snap.Tempo > contracts.MaxTempo {
					t.Errorf("observed invalid tempo %v", snap.Tempo)
					return
				}
			}
		}()
	}
	wg.Wait()
}
