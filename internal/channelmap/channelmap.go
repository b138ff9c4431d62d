// Package channelmap binds logical instruments to device channels.
package channelmap

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/playback/sdk/contracts"
)

// ErrTooFewChannels is returned when the device exposes fewer channels than there are instruments.
var ErrTooFewChannels = errors.New("device exposes too few channels")

// Entry is one (instrument, channel index) binding.
type Entry struct {
	Instrument contracts.Instrument
	Index      int
}

// Map is the immutable instrument -> channel bijection. Instrument i is bound to channel i.
type Map struct {
	entries  []Entry
	channels []contracts.Channel
}

// Build binds every instrument of the enumeration, in order, to the channel with the same index.
// Channels beyond the enumeration length are not part of the map.
func Build(channels []contracts.Channel) (*Map, error) {
	n := int(contracts.NumInstruments)
	if len(channels) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewChannels, len(channels), n)
	}
	m := &Map{
		entries:  make([]Entry, n),
		channels: make([]contracts.Channel, n),
	}
	copy(m.channels, channels[:n])
	for i, inst := range contracts.Instruments() {
		m.entries[i] = Entry{Instrument: inst, Index: inst.Channel()}
	}
	return m, nil
}

// Channel resolves the channel of inst, or nil for an instrument outside the enumeration.
func (m *Map) Channel(inst contracts.Instrument) contracts.Channel {
	if !inst.Valid() {
		return nil
	}
	return m.channels[inst.Channel()]
}

// Index returns the channel index bound to inst, or -1.
func (m *Map) Index(inst contracts.Instrument) int {
	if !inst.Valid() {
		return -1
	}
	return m.entries[inst].Index
}

// Entries returns a copy of the bindings in enumeration order.
func (m *Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Channels returns a copy of the mapped channels in index order.
func (m *Map) Channels() []contracts.Channel {
	return append([]contracts.Channel(nil), m.channels...)
}

// Len is the number of bound instruments.
func (m *Map) Len() int { return len(m.entries) }
