// Package converter moves DX7 voices between SysEx, XML and Standard MIDI File containers
package converter

import (
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
)

// ConversionResult holds the result of a conversion. Diagnostics are the
// events raised while decoding the input.
type ConversionResult struct {
	Data        []byte
	Filename    string
	Format      Format
	Voices      int
	Diagnostics []diag.Event
}

// Device interface for device-specific SysEx handling
type Device interface {
	Name() string
	ID() uint8 // SysEx manufacturer id
	ParseSyx(data []byte, source string, l diag.Listener) ([]voice.NamedVoice, error)
	GenerateSyx(voices []voice.NamedVoice) ([]byte, error)
}

// Converter handles format conversions
type Converter struct {
	device   Device
	listener diag.Listener
	midi     *MIDIConverter
}

// New creates a new Converter with the specified device
func New(device Device) *Converter {
	return &Converter{
		device:   device,
		listener: diag.Discard,
		midi:     NewMIDIConverter(),
	}
}

// SetListener sets where decode diagnostics go. nil discards them.
func (c *Converter) SetListener(l diag.Listener) {
	if l == nil {
		l = diag.Discard
	}
	c.listener = l
}
