// Package devices provides device-specific format handlers
package devices

import (
	"bytes"

	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/sysex"
	"github.com/james-see/dx7syx/pkg/voice"
)

// DX7 implements the Device interface for the Yamaha DX7 32-voice bulk dump
type DX7 struct {
	// Limit caps the voices read from a dump; 0 reads them all
	Limit           int
	LenientChecksum bool
	Logger          *log.Logger
}

// NewDX7 creates a new DX7 device handler
func NewDX7() *DX7 {
	return &DX7{}
}

// Name returns the device name
func (d *DX7) Name() string {
	return "Yamaha DX7"
}

// ID returns the manufacturer ID
func (d *DX7) ID() uint8 {
	return sysex.Manufacturer
}

// ParseSyx decodes a bulk dump. Problems in the data go to l.
func (d *DX7) ParseSyx(data []byte, source string, l diag.Listener) ([]voice.NamedVoice, error) {
	var opts []sysex.Option
	if d.LenientChecksum {
		opts = append(opts, sysex.WithLenientChecksum())
	}
	if d.Logger != nil {
		opts = append(opts, sysex.WithLogger(d.Logger))
	}
	dec := sysex.NewDecoder(bytes.NewReader(data), source, l, opts...)
	if d.Limit > 0 {
		return dec.DecodeAtMost(d.Limit)
	}
	return dec.Decode()
}

// GenerateSyx encodes voices as a bulk dump
func (d *DX7) GenerateSyx(voices []voice.NamedVoice) ([]byte, error) {
	return sysex.EncodeBytes(voices)
}
