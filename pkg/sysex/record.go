package sysex

import (
	"fmt"

	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
)

// FieldError describes a decoded value outside its field range. It is the
// cause attached to range diagnostics.
type FieldError struct {
	Offset   int64
	Voice    int
	Operator voice.OperatorID // zero for voice-level fields
	Err      *voice.RangeError
}

func (e *FieldError) Error() string {
	op := "-"
	if e.Operator != 0 {
		op = fmt.Sprint(int(e.Operator))
	}
	return fmt.Sprintf("byte offset 0x%x, voice %d, operator %s, parameter %q, valid range %s, received %d",
		e.Offset, e.Voice, op, e.Err.Field, e.Err.Range, e.Err.Value)
}

// Unwrap returns the underlying range error
func (e *FieldError) Unwrap() error {
	return e.Err
}

// fields reads bytes of one record and range checks them
type fields struct {
	rec      *[RecordSize]byte
	block    int // offset of the block inside rec
	cur      cursor
	voice    int
	operator voice.OperatorID
	tr       *diag.Tracker
}

// raw returns the byte at local offset i of the current block
func (f fields) raw(i int) byte {
	return f.rec[f.block+i]
}

// check reports v if it is out of r and returns it clamped
func (f fields) check(local int, field string, r voice.Range, v int) int {
	if r.Contains(v) {
		return v
	}
	err := &FieldError{
		Offset:   f.cur.at(local),
		Voice:    f.voice,
		Operator: f.operator,
		Err:      &voice.RangeError{Field: field, Range: r, Value: v},
	}
	f.tr.Errorf(err.Offset, err, "Value out of range.")
	return r.Clamp(v)
}

func (f fields) scalar(local int, field string, r voice.Range) int {
	return f.check(local, field, r, int(f.raw(local)))
}

func (f fields) envelope(rateAt, levelAt int, rateField, levelField func(int) string) voice.Envelope {
	var e voice.Envelope
	for i := range e {
		e[i].Rate = f.scalar(rateAt+i, rateField(i), voice.RangeRate)
	}
	for i := range e {
		e[i].Level = f.scalar(levelAt+i, levelField(i), voice.RangeLevel)
	}
	return e
}

// decodeOperator decodes operator id from rec. ok is false if any field was out of range.
func decodeOperator(rec *[RecordSize]byte, record cursor, voiceIndex int, id voice.OperatorID, tr *diag.Tracker) (voice.Operator, bool) {
	mark := tr.Errors()
	block := operatorOffset(id)
	f := fields{rec: rec, block: block, cur: record.sub(block), voice: voiceIndex, operator: id, tr: tr}

	op := voice.Operator{ID: id, Enabled: true}
	op.Envelope = f.envelope(opRate, opLevel, voice.EnvelopeRateField, voice.EnvelopeLevelField)
	op.Breakpoint = f.scalar(opBreakpt, voice.FieldBreakpoint, voice.RangeLevel)
	op.LeftDepth = f.scalar(opLeftDep, voice.FieldLeftDepth, voice.RangeLevel)
	op.RightDepth = f.scalar(opRightDep, voice.FieldRightDepth, voice.RangeLevel)

	left, right := unpackCurves(f.raw(opCurves))
	op.LeftCurve = voice.ScalingCurve(f.check(opCurves, voice.FieldLeftCurve, voice.RangeCurve, left))
	op.RightCurve = voice.ScalingCurve(f.check(opCurves, voice.FieldRightCurve, voice.RangeCurve, right))

	detune, rs := unpackDetuneRateScaling(f.raw(opDetuneRS))
	op.Detune = f.check(opDetuneRS, voice.FieldDetune, voice.RangeDetune, detune)
	op.RateScaling = f.check(opDetuneRS, voice.FieldRateScaling, voice.RangeRateScaling, rs)

	vel, ams := unpackSensitivity(f.raw(opSensitive))
	op.VelocitySensitivity = f.check(opSensitive, voice.FieldVelocitySensitivity, voice.RangeVelocity, vel)
	op.AmpModSensitivity = f.check(opSensitive, voice.FieldAmpModSensitivity, voice.RangeAmpMod, ams)

	op.OutputLevel = f.scalar(opOutput, voice.FieldOutputLevel, voice.RangeLevel)

	coarse, mode := unpackOscillator(f.raw(opOsc))
	op.FrequencyCoarse = f.check(opOsc, voice.FieldCoarse, voice.RangeCoarse, coarse)
	op.Mode = voice.OscillatorMode(f.check(opOsc, voice.FieldMode, voice.RangeMode, mode))

	op.FrequencyFine = f.scalar(opFine, voice.FieldFine, voice.RangeLevel)

	return op, tr.Errors() == mark
}

// decodeVoice decodes one record. Every operator is decoded even after a
// failure so that all problems are reported; ok is false if any was.
func decodeVoice(rec *[RecordSize]byte, record cursor, voiceIndex int, tr *diag.Tracker) (voice.NamedVoice, bool) {
	mark := tr.Errors()
	f := fields{rec: rec, cur: record, voice: voiceIndex, tr: tr}

	var v voice.Voice
	for id := voice.OperatorID(voice.NumOperators); id >= 1; id-- {
		op, _ := decodeOperator(rec, record, voiceIndex, id, tr)
		v.Operators[id.Index()] = op
	}

	v.PitchEnvelope = f.envelope(vcPitchRate, vcPitchLevel, voice.PitchEnvelopeRateField, voice.PitchEnvelopeLevelField)
	v.Algorithm = voice.AlgorithmFromExternal(int(f.raw(vcAlgorithm)))
	v.Feedback, v.OscKeySync = unpackFeedback(f.raw(vcFeedback))

	v.LFO.Speed = f.scalar(vcLFOSpeed, voice.FieldLFOSpeed, voice.RangeRate)
	v.LFO.Delay = f.scalar(vcLFODelay, voice.FieldLFODelay, voice.RangeLevel)
	v.LFO.PitchModDepth = f.scalar(vcLFOPMD, voice.FieldLFOPitchModDepth, voice.RangeLevel)
	v.LFO.AmpModDepth = f.scalar(vcLFOAMD, voice.FieldLFOAmpModDepth, voice.RangeLevel)

	pms, wave, sync := unpackLFO(f.raw(vcLFOPacked))
	v.LFO.PitchModSensitivity = pms
	v.LFO.Wave = voice.LFOWave(f.check(vcLFOPacked, voice.FieldLFOWave, voice.RangeWave, wave))
	v.LFO.KeySync = sync

	wireRange := voice.Range{Min: voice.RangeTranspose.Min + transposeBias, Max: voice.RangeTranspose.Max + transposeBias}
	v.Transpose = f.scalar(vcTranspose, voice.FieldTranspose, wireRange) - transposeBias

	name := string(rec[vcName : vcName+voice.NameLength])
	return voice.NamedVoice{Name: name, Voice: v}, tr.Errors() == mark
}

// encodeOperator writes op into its block of rec
func encodeOperator(op voice.Operator, rec *[RecordSize]byte) {
	b := rec[operatorOffset(op.ID) : operatorOffset(op.ID)+OperatorBlockSize]
	for i, s := range op.Envelope {
		b[opRate+i] = byte(s.Rate)
		b[opLevel+i] = byte(s.Level)
	}
	b[opBreakpt] = byte(op.Breakpoint)
	b[opLeftDep] = byte(op.LeftDepth)
	b[opRightDep] = byte(op.RightDepth)
	b[opCurves] = packCurves(int(op.LeftCurve), int(op.RightCurve))
	b[opDetuneRS] = packDetuneRateScaling(op.Detune, op.RateScaling)
	b[opSensitive] = packSensitivity(op.VelocitySensitivity, op.AmpModSensitivity)
	b[opOutput] = byte(op.OutputLevel)
	b[opOsc] = packOscillator(op.FrequencyCoarse, int(op.Mode))
	b[opFine] = byte(op.FrequencyFine)
}

// encodeVoice writes nv into rec. Names shorter than ten bytes are padded with spaces.
func encodeVoice(nv voice.NamedVoice, rec *[RecordSize]byte) {
	v := nv.Voice
	for _, op := range v.Operators {
		encodeOperator(op, rec)
	}
	for i, s := range v.PitchEnvelope {
		rec[vcPitchRate+i] = byte(s.Rate)
		rec[vcPitchLevel+i] = byte(s.Level)
	}
	rec[vcAlgorithm] = byte(v.Algorithm.External() & 0x1F)
	rec[vcFeedback] = packFeedback(v.Feedback, v.OscKeySync)
	rec[vcLFOSpeed] = byte(v.LFO.Speed)
	rec[vcLFODelay] = byte(v.LFO.Delay)
	rec[vcLFOPMD] = byte(v.LFO.PitchModDepth)
	rec[vcLFOAMD] = byte(v.LFO.AmpModDepth)
	rec[vcLFOPacked] = packLFO(v.LFO.PitchModSensitivity, int(v.LFO.Wave), v.LFO.KeySync)
	rec[vcTranspose] = byte(v.Transpose + transposeBias)

	name := rec[vcName : vcName+voice.NameLength]
	for i := range name {
		name[i] = ' '
	}
	copy(name, nv.Name)
}
