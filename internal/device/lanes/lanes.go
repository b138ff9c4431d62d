// Package lanes spreads logical channels over MIDI destinations and encodes
// channel events as gomidi messages.
package lanes

import (
	"errors"

	"github.com/leandrodaf/playback/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

const (
	// PercussionChannel is General MIDI channel 10. Synthesizers force it onto
	// the drum bank, so it never carries a logical instrument.
	PercussionChannel = 9
	// PerPort is the number of melodic lanes a destination provides.
	PerPort = 15
)

// ErrShortMessage is returned by Split for messages that are not channel messages.
var ErrShortMessage = errors.New("not a channel message")

// Port is one MIDI destination.
type Port interface {
	Send(msg midi.Message) error
}

// Lane addresses one MIDI channel on one port.
type Lane struct {
	Port    int
	Channel uint8
}

// Ports returns the number of destinations needed for n lanes.
func Ports(n int) int {
	return (n + PerPort - 1) / PerPort
}

// Layout returns the lane of every logical channel 0..n-1.
func Layout(n int) []Lane {
	out := make([]Lane, n)
	for i := range out {
		ch := i % PerPort
		if ch >= PercussionChannel {
			ch++
		}
		out[i] = Lane{Port: i / PerPort, Channel: uint8(ch)}
	}
	return out
}

// ErrorFunc receives send failures of a logical channel.
type ErrorFunc func(index int, err error)

// Channel implements contracts.Channel on a Port.
type Channel struct {
	index   int
	lane    Lane
	port    Port
	onError ErrorFunc
}

// New creates len(ports)*PerPort channels at most, or n if smaller. onError may be nil.
func New(ports []Port, n int, onError ErrorFunc) []contracts.Channel {
	if max := len(ports) * PerPort; n > max {
		n = max
	}
	out := make([]contracts.Channel, n)
	for i, lane := range Layout(n) {
		out[i] = &Channel{index: i, lane: lane, port: ports[lane.Port], onError: onError}
	}
	return out
}

// Index is the logical channel number.
func (c *Channel) Index() int { return c.index }

// Lane is the destination and MIDI channel the logical channel is sent on.
func (c *Channel) Lane() Lane { return c.lane }

// NoteOn sends a note-on on the lane.
func (c *Channel) NoteOn(key, velocity int) {
	c.send(midi.NoteOn(c.lane.Channel, data(key), data(velocity)))
}

// NoteOff sends a note-off with zero release velocity.
func (c *Channel) NoteOff(key int) {
	c.send(midi.NoteOff(c.lane.Channel, data(key)))
}

// NoteOffVelocity sends a note-off with the given release velocity.
func (c *Channel) NoteOffVelocity(key, velocity int) {
	c.send(midi.NoteOffVelocity(c.lane.Channel, data(key), data(velocity)))
}

// ProgramChange selects the lane's program.
func (c *Channel) ProgramChange(program int) {
	c.send(midi.ProgramChange(c.lane.Channel, data(program)))
}

// ControlChange sends a control-change on the lane.
func (c *Channel) ControlChange(controller, value int) {
	c.send(midi.ControlChange(c.lane.Channel, data(controller), data(value)))
}

// AllNotesOff sends the all-notes-off channel-mode message.
func (c *Channel) AllNotesOff() {
	c.ControlChange(contracts.AllNotesOffController, 0)
}

func (c *Channel) send(msg midi.Message) {
	if err := c.port.Send(msg); err != nil && c.onError != nil {
		c.onError(c.index, err)
	}
}

// data masks a value to a 7-bit MIDI data byte.
func data(v int) uint8 { return uint8(v) & 0x7F }

// Split decodes a channel voice message into its command nibble, channel and data bytes.
// Two-byte messages (program change, channel pressure) report data2 as 0.
func Split(msg midi.Message) (command, channel, data1, data2 uint8, err error) {
	if len(msg) < 2 || msg[0] < 0x80 || msg[0] >= 0xF0 {
		return 0, 0, 0, 0, ErrShortMessage
	}
	command, channel, data1 = msg[0]&0xF0, msg[0]&0x0F, msg[1]
	if len(msg) > 2 {
		data2 = msg[2]
	}
	return command, channel, data1, data2, nil
}
