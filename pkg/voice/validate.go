package voice

import (
	"fmt"
)

// Range is a closed integer interval
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies in r
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp returns v limited to r
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Field ranges
var (
	RangeLevel       = Range{0, 99}
	RangeRate        = Range{0, 99}
	RangeCoarse      = Range{0, 31}
	RangeDetune      = Range{-7, 7}
	RangeMode        = Range{0, 1}
	RangeCurve       = Range{0, 3}
	RangeRateScaling = Range{0, 7}
	RangeVelocity    = Range{0, 7}
	RangeAmpMod      = Range{0, 3}
	RangeFeedback    = Range{0, 7}
	RangeTranspose   = Range{-24, 24}
	RangePitchModSen = Range{0, 7}
	RangeWave        = Range{0, 5}
	RangeName        = Range{0, NameLength}
)

// Field names reported in range errors
const (
	FieldBreakpoint          = "Level scaling breakpoint"
	FieldLeftDepth           = "Level scaling left depth"
	FieldRightDepth          = "Level scaling right depth"
	FieldLeftCurve           = "Level scaling left curve"
	FieldRightCurve          = "Level scaling right curve"
	FieldDetune              = "Oscillator detune"
	FieldRateScaling         = "Rate scaling"
	FieldVelocitySensitivity = "Velocity sensitivity"
	FieldAmpModSensitivity   = "Amplitude mod sensitivity"
	FieldOutputLevel         = "Output Level"
	FieldCoarse              = "Oscillator frequency coarse"
	FieldMode                = "Oscillator mode"
	FieldFine                = "Oscillator frequency fine"
	FieldFeedback            = "Feedback"
	FieldTranspose           = "Transpose value"
	FieldLFOSpeed            = "LFO Rate"
	FieldLFODelay            = "LFO Delay"
	FieldLFOPitchModDepth    = "LFO Pitch Modulation Depth"
	FieldLFOAmpModDepth      = "LFO Amplitude Modulation Depth"
	FieldLFOPitchModSen      = "LFO Pitch Modulation Sensitivity"
	FieldLFOWave             = "LFO Wave"
	FieldName                = "Name length"
)

// EnvelopeRateField names the rate of stage i (0-3), e.g. "R1 Rate"
func EnvelopeRateField(i int) string {
	return fmt.Sprintf("R%d Rate", i+1)
}

// EnvelopeLevelField names the level of stage i (0-3), e.g. "R1 Level"
func EnvelopeLevelField(i int) string {
	return fmt.Sprintf("R%d Level", i+1)
}

// PitchEnvelopeRateField names the pitch envelope rate of stage i
func PitchEnvelopeRateField(i int) string {
	return "Pitch Envelope " + EnvelopeRateField(i)
}

// PitchEnvelopeLevelField names the pitch envelope level of stage i
func PitchEnvelopeLevelField(i int) string {
	return "Pitch Envelope " + EnvelopeLevelField(i)
}

// RangeError reports a value outside its field's range
type RangeError struct {
	Field string
	Range Range
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range: valid range %s, received %d", e.Field, e.Range, e.Value)
}

type checker struct {
	err error
}

func (c *checker) check(field string, r Range, v int) {
	if c.err == nil && !r.Contains(v) {
		c.err = &RangeError{Field: field, Range: r, Value: v}
	}
}

func (e Envelope) validate(c *checker, rateField, levelField func(int) string) {
	for i, s := range e {
		c.check(rateField(i), RangeRate, s.Rate)
		c.check(levelField(i), RangeLevel, s.Level)
	}
}

// Validate returns the first out-of-range field of op as a *RangeError
func (op Operator) Validate() error {
	if !op.ID.Valid() {
		return &RangeError{Field: "Operator", Range: Range{1, NumOperators}, Value: int(op.ID)}
	}
	c := &checker{}
	c.check(FieldCoarse, RangeCoarse, op.FrequencyCoarse)
	c.check(FieldFine, RangeLevel, op.FrequencyFine)
	c.check(FieldDetune, RangeDetune, op.Detune)
	c.check(FieldMode, RangeMode, int(op.Mode))
	c.check(FieldOutputLevel, RangeLevel, op.OutputLevel)
	op.Envelope.validate(c, EnvelopeRateField, EnvelopeLevelField)
	c.check(FieldVelocitySensitivity, RangeVelocity, op.VelocitySensitivity)
	c.check(FieldAmpModSensitivity, RangeAmpMod, op.AmpModSensitivity)
	c.check(FieldBreakpoint, RangeLevel, op.Breakpoint)
	c.check(FieldLeftDepth, RangeLevel, op.LeftDepth)
	c.check(FieldRightDepth, RangeLevel, op.RightDepth)
	c.check(FieldLeftCurve, RangeCurve, int(op.LeftCurve))
	c.check(FieldRightCurve, RangeCurve, int(op.RightCurve))
	c.check(FieldRateScaling, RangeRateScaling, op.RateScaling)
	return c.err
}

// Validate checks the voice and all six operators
func (v Voice) Validate() error {
	for i, op := range v.Operators {
		if int(op.ID) != i+1 {
			return fmt.Errorf("operator slot %d holds operator %d", i+1, op.ID)
		}
		if err := op.Validate(); err != nil {
			return err
		}
	}
	if !v.Algorithm.Valid() {
		return &RangeError{Field: "Algorithm", Range: Range{1, NumAlgorithms}, Value: int(v.Algorithm)}
	}
	c := &checker{}
	c.check(FieldFeedback, RangeFeedback, v.Feedback)
	c.check(FieldTranspose, RangeTranspose, v.Transpose)
	v.PitchEnvelope.validate(c, PitchEnvelopeRateField, PitchEnvelopeLevelField)
	c.check(FieldLFOPitchModDepth, RangeLevel, v.LFO.PitchModDepth)
	c.check(FieldLFOPitchModSen, RangePitchModSen, v.LFO.PitchModSensitivity)
	c.check(FieldLFOAmpModDepth, RangeLevel, v.LFO.AmpModDepth)
	c.check(FieldLFOSpeed, RangeRate, v.LFO.Speed)
	c.check(FieldLFODelay, RangeLevel, v.LFO.Delay)
	c.check(FieldLFOWave, RangeWave, int(v.LFO.Wave))
	return c.err
}

// Validate checks the name length and encoding, then the voice
func (nv NamedVoice) Validate() error {
	if !RangeName.Contains(len(nv.Name)) {
		return &RangeError{Field: FieldName, Range: RangeName, Value: len(nv.Name)}
	}
	for i := 0; i < len(nv.Name); i++ {
		if nv.Name[i] > 0x7F {
			return fmt.Errorf("name %q: byte %d (0x%02X) is not ASCII", nv.Name, i, nv.Name[i])
		}
	}
	return nv.Voice.Validate()
}
