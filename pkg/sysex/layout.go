// Package sysex decodes and encodes DX7 voice data in MIDI System Exclusive form
package sysex

import (
	"github.com/james-see/dx7syx/pkg/voice"
)

// SysEx framing
const (
	SysExStart   = 0xF0
	SysExEnd     = 0xF7
	Manufacturer = 0x43 // Yamaha
	SubStatus    = 0x00 // sub-status 0, MIDI channel 1
)

// Format selector bytes
const (
	FormatSingleVoice = 0x00
	FormatBulk32      = 0x09
)

// RecordSize is the size of one packed voice record
const RecordSize = 128

// MaxVoices is the largest voice count the 14 bit size field can carry
const MaxVoices = 0x3FFF / RecordSize

// headerSize covers F0 43 00 09 and the two size bytes
const headerSize = 6

// OperatorBlockSize is the size of one packed operator inside a record
const OperatorBlockSize = 17

// Operator block offsets
const (
	opRate      = 0 // R1..R4 rates at 0-3
	opLevel     = 4 // R1..R4 levels at 4-7
	opBreakpt   = 8
	opLeftDep   = 9
	opRightDep  = 10
	opCurves    = 11
	opDetuneRS  = 12
	opSensitive = 13
	opOutput    = 14
	opOsc       = 15
	opFine      = 16
)

// Voice record offsets following the six operator blocks
const (
	vcPitchRate  = 102 // R1..R4 at 102-105
	vcPitchLevel = 106 // R1..R4 at 106-109
	vcAlgorithm  = 110
	vcFeedback   = 111
	vcLFOSpeed   = 112
	vcLFODelay   = 113
	vcLFOPMD     = 114
	vcLFOAMD     = 115
	vcLFOPacked  = 116
	vcTranspose  = 117
	vcName       = 118
)

// transposeBias is added to the transpose value on the wire
const transposeBias = 24

// operatorOffset returns the start of operator id's block. Operators are
// stored in descending order: operator 6 first, operator 1 last.
func operatorOffset(id voice.OperatorID) int {
	return (voice.NumOperators - int(id)) * OperatorBlockSize
}

// cursor locates a record or block in the stream. Field offsets are given
// relative to base; the absolute offset is what diagnostics report.
type cursor struct {
	base int64
}

func (c cursor) at(local int) int64 {
	return c.base + int64(local)
}

func (c cursor) sub(local int) cursor {
	return cursor{base: c.at(local)}
}
