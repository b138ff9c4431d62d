package channelmap

import (
	"errors"
	"testing"

	"github.com/leandrodaf/playback/sdk/contracts"
)

type idChannel struct{ id int }

func (idChannel) NoteOn(key, velocity int)            {}
func (idChannel) NoteOff(key int)                     {}
func (idChannel) NoteOffVelocity(key, velocity int)   {}
func (idChannel) ProgramChange(program int)           {}
func (idChannel) ControlChange(controller, value int) {}
func (idChannel) AllNotesOff()                        {}

func channels(n int) []contracts.Channel {
	out := make([]contracts.Channel, n)
	for i := range out {
		out[i] = &idChannel{id: i}
	}
	return out
}

func TestBuildBijection(t *testing.T) {
	m, err := Build(channels(contracts.AdvancedVoices))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Len() != int(contracts.NumInstruments) {
		t.Fatalf("Len() = %d, want %d", m.Len(), contracts.NumInstruments)
	}

	seen := map[contracts.Channel]contracts.Instrument{}
	for _, inst := range contracts.Instruments() {
		ch := m.Channel(inst)
		if ch == nil {
			t.Fatalf("no channel for %v", inst)
		}
		if other, dup := seen[ch]; dup {
			t.Fatalf("%v and %v share a channel", inst, other)
		}
		seen[ch] = inst
		if got := ch.(*idChannel).id; got != int(inst) {
			t.Errorf("%v bound to channel %d, want %d", inst, got, int(inst))
		}
		if m.Channel(inst) != ch || m.Index(inst) != int(inst) {
			t.Errorf("%v resolution is not stable", inst)
		}
	}
}

func TestBuildTooFewChannels(t *testing.T) {
	_, err := Build(channels(16))
	if !errors.Is(err, ErrTooFewChannels) {
		t.Fatalf("Build(16 channels) err = %v", err)
	}
}

func TestInvalidInstrument(t *testing.T) {
	m, err := Build(channels(int(contracts.NumInstruments)))
	if err != nil {
		t.Fatal(err)
	}
	if m.Channel(contracts.Instrument(-1)) != nil || m.Channel(contracts.NumInstruments) != nil {
		t.Fatal("out-of-enumeration instruments should not resolve")
	}
	if m.Index(contracts.NumInstruments) != -1 {
		t.Fatal("Index of invalid instrument should be -1")
	}
}

func TestEntriesAreCopies(t *testing.T) {
	m, err := Build(channels(int(contracts.NumInstruments)))
	if err != nil {
		t.Fatal(err)
	}
	e := m.Entries()
	e[0].Index = 99
	if m.Index(contracts.Mario) != 0 {
		t.Fatal("Entries exposed internal state")
	}
}
