package converter

import (
	"bytes"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDIConverter carries SysEx dumps inside Standard MIDI Files
type MIDIConverter struct {
	ticksPerQuarter uint16
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter() *MIDIConverter {
	return &MIDIConverter{
		ticksPerQuarter: 480,
	}
}

// WrapSysEx builds a single-track SMF holding dump as its only SysEx event
func (m *MIDIConverter) WrapSysEx(dump []byte, name string) ([]byte, error) {
	if err := ValidateSyx(dump); err != nil {
		return nil, err
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	// Track name meta event (FF 03 len text)
	if name != "" {
		if len(name) > 127 {
			name = name[:127]
		}
		meta := append([]byte{0xFF, 0x03, byte(len(name))}, name...)
		track.Add(0, smf.Message(meta))
	}

	track.Add(0, smf.Message(midi.SysEx(dump[1:len(dump)-1])))
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, errors.Wrap(err, "failed to add track")
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to write MIDI")
	}
	return buf.Bytes(), nil
}

// UnwrapSysEx returns the first Yamaha SysEx message found in an SMF,
// framed with F0 and F7
func (m *MIDIConverter) UnwrapSysEx(data []byte) ([]byte, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse MIDI")
	}

	for _, track := range s.Tracks {
		for _, ev := range track {
			dump, ok := sysexOf(ev.Message)
			if ok && IsYamahaSyx(dump) {
				return dump, nil
			}
		}
	}
	return nil, errors.New("MIDI file contains no Yamaha SysEx message")
}

func sysexOf(msg smf.Message) ([]byte, bool) {
	var payload []byte
	if midi.Message(msg).GetSysEx(&payload) {
		framed := make([]byte, 0, len(payload)+2)
		framed = append(framed, SysExStart)
		framed = append(framed, payload...)
		return append(framed, SysExEnd), true
	}

	// Raw F0 ... F7 bytes
	if len(msg) >= 2 && msg[0] == SysExStart && msg[len(msg)-1] == SysExEnd {
		return []byte(msg), true
	}
	return nil, false
}
