//go:build cgo

package main

// Registers the RtMidi driver so the port backend can reach system MIDI outputs.
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
