// Package voice holds the DX7 voice data model shared by the SysEx and XML codecs
package voice

import (
	"fmt"
)

// NumOperators is the number of operators in every voice
const NumOperators = 6

// NameLength is the fixed width of a voice name on the wire
const NameLength = 10

// OperatorID identifies one of the six operators (1-6)
type OperatorID int

// NewOperatorID returns an OperatorID or a range error
func NewOperatorID(v int) (OperatorID, error) {
	id := OperatorID(v)
	if !id.Valid() {
		return 0, &RangeError{Field: "Operator", Range: Range{1, NumOperators}, Value: v}
	}
	return id, nil
}

// Valid reports whether the id lies in [1,6]
func (id OperatorID) Valid() bool {
	return id >= 1 && id <= NumOperators
}

// Index returns the zero-based array index of the operator
func (id OperatorID) Index() int {
	return int(id) - 1
}

// OperatorIDs returns the operator ids in ascending order
func OperatorIDs() []OperatorID {
	return []OperatorID{1, 2, 3, 4, 5, 6}
}

// AlgorithmID selects one of the 32 operator routings (1-32)
type AlgorithmID int

// NumAlgorithms is the number of algorithms
const NumAlgorithms = 32

// NewAlgorithmID returns an AlgorithmID or a range error
func NewAlgorithmID(v int) (AlgorithmID, error) {
	a := AlgorithmID(v)
	if !a.Valid() {
		return 0, &RangeError{Field: "Algorithm", Range: Range{1, NumAlgorithms}, Value: v}
	}
	return a, nil
}

// AlgorithmFromExternal converts the zero-based wire value, masked to 5 bits
func AlgorithmFromExternal(x int) AlgorithmID {
	return AlgorithmID(x&0x1F + 1)
}

// Valid reports whether the id lies in [1,32]
func (a AlgorithmID) Valid() bool {
	return a >= 1 && a <= NumAlgorithms
}

// External returns the zero-based wire form
func (a AlgorithmID) External() int {
	return int(a) - 1
}

// OscillatorMode selects ratio or fixed frequency
type OscillatorMode int

const (
	ModeRatio OscillatorMode = iota
	ModeFixed
)

var modeNames = []string{"ratio", "fixed"}

func (m OscillatorMode) String() string {
	return enumName(modeNames, int(m))
}

// MarshalText implements encoding.TextMarshaler
func (m OscillatorMode) MarshalText() ([]byte, error) {
	return marshalEnum(modeNames, int(m), "oscillator mode")
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *OscillatorMode) UnmarshalText(b []byte) error {
	v, err := ParseEnum(modeNames, string(b), "oscillator mode")
	*m = OscillatorMode(v)
	return err
}

// ScalingCurve is a keyboard level scaling curve
type ScalingCurve int

const (
	CurveLinearNegative ScalingCurve = iota
	CurveExponentialNegative
	CurveExponentialPositive
	CurveLinearPositive
)

var curveNames = []string{"linearNegative", "exponentialNegative", "exponentialPositive", "linearPositive"}

func (c ScalingCurve) String() string {
	return enumName(curveNames, int(c))
}

// MarshalText implements encoding.TextMarshaler
func (c ScalingCurve) MarshalText() ([]byte, error) {
	return marshalEnum(curveNames, int(c), "scaling curve")
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *ScalingCurve) UnmarshalText(b []byte) error {
	v, err := ParseEnum(curveNames, string(b), "scaling curve")
	*c = ScalingCurve(v)
	return err
}

// LFOWave is the LFO waveform
type LFOWave int

const (
	WaveTriangle LFOWave = iota
	WaveSawDown
	WaveSawUp
	WaveSquare
	WaveSine
	WaveSampleAndHold
)

var waveNames = []string{"triangle", "sawDown", "sawUp", "square", "sine", "sampleAndHold"}

func (w LFOWave) String() string {
	return enumName(waveNames, int(w))
}

// MarshalText implements encoding.TextMarshaler
func (w LFOWave) MarshalText() ([]byte, error) {
	return marshalEnum(waveNames, int(w), "LFO wave")
}

// UnmarshalText implements encoding.TextUnmarshaler
func (w *LFOWave) UnmarshalText(b []byte) error {
	v, err := ParseEnum(waveNames, string(b), "LFO wave")
	*w = LFOWave(v)
	return err
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func marshalEnum(names []string, v int, what string) ([]byte, error) {
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", what, v)
	}
	return []byte(names[v]), nil
}

// ParseEnum looks up s in names and returns its ordinal
func ParseEnum(names []string, s, what string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unrecognized %s %q", what, s)
}

// ModeNames, CurveNames and WaveNames list the textual enum spellings by ordinal
func ModeNames() []string  { return append([]string(nil), modeNames...) }
func CurveNames() []string { return append([]string(nil), curveNames...) }
func WaveNames() []string  { return append([]string(nil), waveNames...) }

// Stage is one rate/level pair of an envelope
type Stage struct {
	Rate  int `json:"rate"`
	Level int `json:"level"`
}

// Envelope holds the four stages R1..R4
type Envelope [4]Stage

// Operator is one of the six FM operators of a voice
type Operator struct {
	ID                  OperatorID     `json:"id"`
	Enabled             bool           `json:"enabled"`
	FrequencyCoarse     int            `json:"frequencyCoarse"`
	FrequencyFine       int            `json:"frequencyFine"`
	Detune              int            `json:"detune"`
	Mode                OscillatorMode `json:"mode"`
	OutputLevel         int            `json:"outputLevel"`
	Envelope            Envelope       `json:"envelope"`
	VelocitySensitivity int            `json:"velocitySensitivity"`
	AmpModSensitivity   int            `json:"ampModSensitivity"`
	Breakpoint          int            `json:"breakpoint"`
	LeftDepth           int            `json:"leftDepth"`
	RightDepth          int            `json:"rightDepth"`
	LeftCurve           ScalingCurve   `json:"leftCurve"`
	RightCurve          ScalingCurve   `json:"rightCurve"`
	RateScaling         int            `json:"rateScaling"`
}

// LFO holds the voice-wide low frequency oscillator settings
type LFO struct {
	PitchModDepth       int     `json:"pitchModDepth"`
	PitchModSensitivity int     `json:"pitchModSensitivity"`
	AmpModDepth         int     `json:"ampModDepth"`
	Speed               int     `json:"speed"`
	Delay               int     `json:"delay"`
	Wave                LFOWave `json:"wave"`
	KeySync             bool    `json:"keySync"`
}

// Voice is a complete patch: six operators plus shared parameters
type Voice struct {
	Operators     [NumOperators]Operator `json:"operators"`
	Algorithm     AlgorithmID            `json:"algorithm"`
	Feedback      int                    `json:"feedback"`
	Transpose     int                    `json:"transpose"`
	PitchEnvelope Envelope               `json:"pitchEnvelope"`
	LFO           LFO                    `json:"lfo"`
	OscKeySync    bool                   `json:"oscKeySync"`
}

// Operator returns the operator with the given id
func (v Voice) Operator(id OperatorID) Operator {
	return v.Operators[id.Index()]
}

// WithOperator returns a copy of v with op replacing the operator of the same id
func (v Voice) WithOperator(op Operator) Voice {
	v.Operators[op.ID.Index()] = op
	return v
}

// Metadata records where a voice came from. It never appears on the SysEx wire.
type Metadata struct {
	Source string `json:"source,omitempty"`
	ID     string `json:"id,omitempty"`
}

// IsZero reports whether no metadata is attached
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// NamedVoice is a voice together with its display name
type NamedVoice struct {
	Name     string   `json:"name"`
	Voice    Voice    `json:"voice"`
	Metadata Metadata `json:"metadata"`
}

// NewNamedVoice validates name and v and returns the pair
func NewNamedVoice(name string, v Voice) (NamedVoice, error) {
	nv := NamedVoice{Name: name, Voice: v}
	if err := nv.Validate(); err != nil {
		return NamedVoice{}, err
	}
	return nv, nil
}

// WithVoice returns a copy carrying v
func (nv NamedVoice) WithVoice(v Voice) NamedVoice {
	nv.Voice = v
	return nv
}

// WithMetadata returns a copy carrying m
func (nv NamedVoice) WithMetadata(m Metadata) NamedVoice {
	nv.Metadata = m
	return nv
}

// WithoutMetadata returns a copy with metadata removed
func (nv NamedVoice) WithoutMetadata() NamedVoice {
	nv.Metadata = Metadata{}
	return nv
}
