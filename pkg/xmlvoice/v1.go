package xmlvoice

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/pkg/errors"
)

// NamespaceV1 is the namespace of the first schema version
const NamespaceV1 = "schema:com.io7m.jdextrosa:1.0"

const (
	elemVoices   = "dx7-voices"
	elemVoice    = "dx7-voice"
	elemMetadata = "dx7-voice-metadata"
	elemOperator = "dx7-operator"
	elemLFO      = "dx7-lfo"
)

// V1 reads and writes schema version 1 documents
type V1 struct{}

// Namespace returns NamespaceV1
func (V1) Namespace() string {
	return NamespaceV1
}

// Decode reads every voice in the document. Voices with errors are dropped;
// if any error was reported the result is ErrInvalidDocument.
func (V1) Decode(r io.Reader, source string, l diag.Listener) ([]voice.NamedVoice, error) {
	tr := diag.NewTracker(source, l)
	dec := xml.NewDecoder(r)

	var voices []voice.NamedVoice
	var cur *voiceBuilder
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, col := dec.InputPos()
			tr.ErrorAt(line, col, err, "Malformed document")
			return nil, ErrInvalidDocument
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, col := dec.InputPos()
			a := newAttrs(t, line, col, tr)
			if t.Name.Space != NamespaceV1 {
				tr.ErrorAt(line, col, nil, "Element %s is not in namespace %q", t.Name.Local, NamespaceV1)
				continue
			}
			switch t.Name.Local {
			case elemVoices:
				sawRoot = true
			case elemVoice:
				cur = newVoiceBuilder(a)
			case elemMetadata, elemOperator, elemLFO:
				if cur == nil {
					tr.ErrorAt(line, col, nil, "Element %s outside of %s", t.Name.Local, elemVoice)
					continue
				}
				cur.child(t.Name.Local, a)
			default:
				tr.WarnAt(line, col, nil, "Ignoring unrecognized element %s", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == elemVoice && cur != nil {
				if nv, ok := cur.finish(); ok {
					voices = append(voices, nv)
				}
				cur = nil
			}
		}
	}

	if !sawRoot {
		tr.ErrorAt(1, 1, nil, "Missing %s root element", elemVoices)
	}
	if tr.Errors() > 0 {
		return nil, ErrInvalidDocument
	}
	return voices, nil
}

// attrs reads and range checks the attributes of one element
type attrs struct {
	element   string
	values    map[string]string
	used      map[string]bool
	line, col int
	tr        *diag.Tracker
}

func newAttrs(se xml.StartElement, line, col int, tr *diag.Tracker) *attrs {
	a := &attrs{
		element: se.Name.Local,
		values:  make(map[string]string, len(se.Attr)),
		used:    map[string]bool{},
		line:    line,
		col:     col,
		tr:      tr,
	}
	for _, at := range se.Attr {
		if at.Name.Space == "xmlns" || at.Name.Local == "xmlns" {
			continue
		}
		a.values[at.Name.Local] = at.Value
	}
	return a
}

func (a *attrs) errorf(cause error, format string, args ...interface{}) {
	a.tr.ErrorAt(a.line, a.col, cause, format, args...)
}

func (a *attrs) lookup(name string) (string, bool) {
	a.used[name] = true
	v, ok := a.values[name]
	return v, ok
}

func (a *attrs) str(name, def string) string {
	if v, ok := a.lookup(name); ok {
		return v
	}
	return def
}

func (a *attrs) require(name string) (string, bool) {
	v, ok := a.lookup(name)
	if !ok {
		a.errorf(nil, "Element %s is missing required attribute %s", a.element, name)
	}
	return v, ok
}

func (a *attrs) integer(name string, r voice.Range, def int) int {
	s, ok := a.lookup(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		a.errorf(err, "Attribute %s of %s is not an integer: %q", name, a.element, s)
		return def
	}
	if !r.Contains(v) {
		a.errorf(&voice.RangeError{Field: name, Range: r, Value: v}, "Value out of range.")
		return r.Clamp(v)
	}
	return v
}

func (a *attrs) boolean(name string, def bool) bool {
	s, ok := a.lookup(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		a.errorf(err, "Attribute %s of %s is not a boolean: %q", name, a.element, s)
		return def
	}
	return v
}

func (a *attrs) enum(name string, names []string, def int) int {
	s, ok := a.lookup(name)
	if !ok {
		return def
	}
	v, err := voice.ParseEnum(names, s, name)
	if err != nil {
		a.errorf(err, "Attribute %s of %s has an unrecognized value %q", name, a.element, s)
		return def
	}
	return v
}

func (a *attrs) envelope(prefix string, def voice.Envelope) voice.Envelope {
	e := def
	for i := range e {
		e[i].Rate = a.integer(fmt.Sprintf("%sR%dRate", prefix, i+1), voice.RangeRate, e[i].Rate)
		e[i].Level = a.integer(fmt.Sprintf("%sR%dLevel", prefix, i+1), voice.RangeLevel, e[i].Level)
	}
	return e
}

// warnUnused reports attributes nothing asked for
func (a *attrs) warnUnused() {
	for name := range a.values {
		if !a.used[name] {
			a.tr.WarnAt(a.line, a.col, nil, "Ignoring unrecognized attribute %s on %s", name, a.element)
		}
	}
}

type voiceBuilder struct {
	a    *attrs
	mark int
	nv   voice.NamedVoice
	seen voice.OperatorSet
}

func newVoiceBuilder(a *attrs) *voiceBuilder {
	b := &voiceBuilder{a: a, mark: a.tr.Errors()}
	v := voice.DefaultVoice()

	if name, ok := a.require("name"); ok {
		if h, ok := a.lookup("nameHex"); ok {
			raw, err := hex.DecodeString(h)
			if err != nil {
				a.errorf(err, "Attribute nameHex of %s is not hexadecimal: %q", a.element, h)
			} else {
				name = string(raw)
			}
		}
		if !voice.RangeName.Contains(len(name)) {
			a.errorf(&voice.RangeError{Field: voice.FieldName, Range: voice.RangeName, Value: len(name)}, "Voice name %q is too long", name)
		}
		b.nv.Name = name
	}
	v.Algorithm = voice.AlgorithmID(a.integer("algorithm", voice.Range{Min: 1, Max: voice.NumAlgorithms}, int(v.Algorithm)))
	v.Feedback = a.integer("feedback", voice.RangeFeedback, v.Feedback)
	v.Transpose = a.integer("transpose", voice.RangeTranspose, v.Transpose)
	v.OscKeySync = a.boolean("oscillatorKeySync", v.OscKeySync)
	v.PitchEnvelope = a.envelope("pitchEnvelope", v.PitchEnvelope)
	a.warnUnused()

	b.nv.Voice = v
	return b
}

func (b *voiceBuilder) child(element string, a *attrs) {
	switch element {
	case elemMetadata:
		b.nv.Metadata = voice.Metadata{Source: a.str("source", ""), ID: a.str("id", "")}
	case elemOperator:
		b.operator(a)
	case elemLFO:
		b.lfo(a)
	}
	a.warnUnused()
}

func (b *voiceBuilder) operator(a *attrs) {
	raw, ok := a.require("id")
	if !ok {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		a.errorf(err, "Operator id %q is not an integer", raw)
		return
	}
	id, err := voice.NewOperatorID(n)
	if err != nil {
		a.errorf(err, "Value out of range.")
		return
	}
	if b.seen.Contains(id) {
		a.errorf(nil, "Duplicate operator %d", id)
		return
	}
	b.seen |= voice.NewOperatorSet(id)

	op := voice.DefaultOperator(id)
	op.Enabled = a.boolean("enabled", op.Enabled)
	op.FrequencyCoarse = a.integer("frequencyCoarse", voice.RangeCoarse, op.FrequencyCoarse)
	op.FrequencyFine = a.integer("frequencyFine", voice.RangeLevel, op.FrequencyFine)
	op.Detune = a.integer("frequencyDetune", voice.RangeDetune, op.Detune)
	op.Mode = voice.OscillatorMode(a.enum("mode", voice.ModeNames(), int(op.Mode)))
	op.OutputLevel = a.integer("output", voice.RangeLevel, op.OutputLevel)
	op.Envelope = a.envelope("envelope", op.Envelope)
	op.Breakpoint = a.integer("levelScalingBreakpoint", voice.RangeLevel, op.Breakpoint)
	op.LeftDepth = a.integer("levelScalingLeftDepth", voice.RangeLevel, op.LeftDepth)
	op.LeftCurve = voice.ScalingCurve(a.enum("levelScalingLeftCurve", voice.CurveNames(), int(op.LeftCurve)))
	op.RightDepth = a.integer("levelScalingRightDepth", voice.RangeLevel, op.RightDepth)
	op.RightCurve = voice.ScalingCurve(a.enum("levelScalingRightCurve", voice.CurveNames(), int(op.RightCurve)))
	op.VelocitySensitivity = a.integer("velocitySensitivity", voice.RangeVelocity, op.VelocitySensitivity)
	op.AmpModSensitivity = a.integer("lfoAmplitudeModulationSensitivity", voice.RangeAmpMod, op.AmpModSensitivity)
	op.RateScaling = a.integer("rateScaling", voice.RangeRateScaling, op.RateScaling)

	b.nv.Voice = b.nv.Voice.WithOperator(op)
}

func (b *voiceBuilder) lfo(a *attrs) {
	lfo := b.nv.Voice.LFO
	lfo.PitchModDepth = a.integer("pitchModulationDepth", voice.RangeLevel, lfo.PitchModDepth)
	lfo.PitchModSensitivity = a.integer("pitchModulationSensitivity", voice.RangePitchModSen, lfo.PitchModSensitivity)
	lfo.AmpModDepth = a.integer("amplitudeModulationDepth", voice.RangeLevel, lfo.AmpModDepth)
	lfo.Speed = a.integer("rate", voice.RangeRate, lfo.Speed)
	lfo.Delay = a.integer("delay", voice.RangeLevel, lfo.Delay)
	lfo.KeySync = a.boolean("keySynchronize", lfo.KeySync)
	lfo.Wave = voice.LFOWave(a.enum("waveform", voice.WaveNames(), int(lfo.Wave)))
	b.nv.Voice.LFO = lfo
}

func (b *voiceBuilder) finish() (voice.NamedVoice, bool) {
	for _, id := range voice.OperatorIDs() {
		if !b.seen.Contains(id) {
			b.a.errorf(nil, "Voice %q is missing operator %d", b.nv.Name, id)
		}
	}
	return b.nv, b.a.tr.Errors() == b.mark
}

// Encode writes voices as a schema version 1 document
func (V1) Encode(w io.Writer, voices []voice.NamedVoice) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "writing xml header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: elemVoices},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NamespaceV1}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return errors.Wrap(err, "writing xml")
	}
	for _, nv := range voices {
		if err := encodeVoice(enc, nv); err != nil {
			return errors.Wrapf(err, "writing voice %q", nv.Name)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return errors.Wrap(err, "writing xml")
	}
	if err := enc.Flush(); err != nil {
		return errors.Wrap(err, "writing xml")
	}
	_, err := io.WriteString(w, "\n")
	return errors.Wrap(err, "writing xml")
}

type attrList []xml.Attr

func (l *attrList) add(name string, v interface{}) {
	*l = append(*l, xml.Attr{Name: xml.Name{Local: name}, Value: fmt.Sprint(v)})
}

func (l *attrList) envelope(prefix string, e voice.Envelope) {
	for i, s := range e {
		l.add(fmt.Sprintf("%sR%dLevel", prefix, i+1), s.Level)
		l.add(fmt.Sprintf("%sR%dRate", prefix, i+1), s.Rate)
	}
}

func element(enc *xml.Encoder, name string, attrs attrList, children func() error) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if children != nil {
		if err := children(); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeVoice(enc *xml.Encoder, nv voice.NamedVoice) error {
	v := nv.Voice
	var va attrList
	va.add("name", printableName(nv.Name))
	if needsHexName(nv.Name) {
		va.add("nameHex", hex.EncodeToString([]byte(nv.Name)))
	}
	va.add("algorithm", int(v.Algorithm))
	va.add("feedback", v.Feedback)
	va.add("transpose", v.Transpose)
	va.add("oscillatorKeySync", v.OscKeySync)
	va.envelope("pitchEnvelope", v.PitchEnvelope)

	return element(enc, elemVoice, va, func() error {
		if !nv.Metadata.IsZero() {
			var ma attrList
			ma.add("id", nv.Metadata.ID)
			ma.add("source", nv.Metadata.Source)
			if err := element(enc, elemMetadata, ma, nil); err != nil {
				return err
			}
		}
		for _, op := range v.Operators {
			if err := element(enc, elemOperator, operatorAttrs(op), nil); err != nil {
				return err
			}
		}
		var la attrList
		la.add("pitchModulationDepth", v.LFO.PitchModDepth)
		la.add("pitchModulationSensitivity", v.LFO.PitchModSensitivity)
		la.add("amplitudeModulationDepth", v.LFO.AmpModDepth)
		la.add("rate", v.LFO.Speed)
		la.add("delay", v.LFO.Delay)
		la.add("keySynchronize", v.LFO.KeySync)
		la.add("waveform", v.LFO.Wave)
		return element(enc, elemLFO, la, nil)
	})
}

// needsHexName reports whether name holds bytes an XML attribute cannot carry
func needsHexName(name string) bool {
	for i := 0; i < len(name); i++ {
		if !xmlSafe(name[i]) {
			return true
		}
	}
	return false
}

// printableName replaces bytes an XML attribute cannot carry with '?'
func printableName(name string) string {
	if !needsHexName(name) {
		return name
	}
	b := []byte(name)
	for i, c := range b {
		if !xmlSafe(c) {
			b[i] = '?'
		}
	}
	return string(b)
}

func xmlSafe(c byte) bool {
	return c >= 0x20 && c < 0x7F
}

func operatorAttrs(op voice.Operator) attrList {
	var a attrList
	a.add("id", int(op.ID))
	a.add("enabled", op.Enabled)
	a.add("frequencyCoarse", op.FrequencyCoarse)
	a.add("frequencyFine", op.FrequencyFine)
	a.add("frequencyDetune", op.Detune)
	a.add("mode", op.Mode)
	a.add("output", op.OutputLevel)
	a.envelope("envelope", op.Envelope)
	a.add("levelScalingBreakpoint", op.Breakpoint)
	a.add("levelScalingLeftDepth", op.LeftDepth)
	a.add("levelScalingLeftCurve", op.LeftCurve)
	a.add("levelScalingRightDepth", op.RightDepth)
	a.add("levelScalingRightCurve", op.RightCurve)
	a.add("velocitySensitivity", op.VelocitySensitivity)
	a.add("lfoAmplitudeModulationSensitivity", op.AmpModSensitivity)
	a.add("rateScaling", op.RateScaling)
	return a
}
