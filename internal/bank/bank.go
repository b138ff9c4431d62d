// Package bank reads SoundFont 2 instrument banks.
package bank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/leandrodaf/playback/sdk/contracts"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

var (
	// ErrNotFound is returned when the soundfont file does not exist.
	ErrNotFound = errors.New("soundfont not found")
	// ErrRead is returned when the soundfont file exists but cannot be read.
	ErrRead = errors.New("cannot read soundfont")
	// ErrMalformed is returned when the file is not a valid SoundFont 2 bank.
	ErrMalformed = errors.New("malformed soundfont")
)

// Bank is a parsed soundfont. It implements contracts.Soundbank.
type Bank struct {
	name        string
	size        int64
	font        *meltysynth.SoundFont
	instruments []contracts.InstrumentInfo
}

// Load reads and parses the soundfont at path.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	b, err := Parse(filepath.Base(path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b.size = int64(len(data))
	return b, nil
}

// Parse parses a soundfont from r.
func Parse(name string, r io.Reader) (*Bank, error) {
	font, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return FromSoundFont(name, font), nil
}

// parse guards against panics raised by the parser on truncated input.
func parse(r io.Reader) (font *meltysynth.SoundFont, err error) {
	defer func() {
		if p := recover(); p != nil {
			font, err = nil, fmt.Errorf("parser panic: %v", p)
		}
	}()
	return meltysynth.NewSoundFont(r)
}

// FromSoundFont wraps an already parsed soundfont.
func FromSoundFont(name string, font *meltysynth.SoundFont) *Bank {
	b := &Bank{name: name, font: font}
	for _, p := range font.Presets {
		b.instruments = append(b.instruments, contracts.InstrumentInfo{
			Name:    p.Name,
			Bank:    int(p.BankNumber),
			Program: int(p.PatchNumber),
		})
	}
	sort.Slice(b.instruments, func(i, j int) bool {
		a, c := b.instruments[i], b.instruments[j]
		if a.Bank != c.Bank {
			return a.Bank < c.Bank
		}
		return a.Program < c.Program
	})
	return b
}

// Name is the name the bank was parsed under.
func (b *Bank) Name() string { return b.name }

// Instruments lists the bank's presets ordered by bank and program.
func (b *Bank) Instruments() []contracts.InstrumentInfo {
	return append([]contracts.InstrumentInfo(nil), b.instruments...)
}

// SoundFont exposes the parsed bank to synthesizers that render it.
func (b *Bank) SoundFont() *meltysynth.SoundFont { return b.font }

// Size is the file size in bytes, or 0 for banks not read from a file.
func (b *Bank) Size() int64 { return b.size }
