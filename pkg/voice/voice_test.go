package voice

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAlgorithmFromExternal(t *testing.T) {
	tests := []struct {
		external int
		expected AlgorithmID
	}{
		{0, 1},
		{31, 32},
		{15, 16},
		{0x20, 1},
		{0xFF, 32},
	}

	for _, tt := range tests {
		got := AlgorithmFromExternal(tt.external)
		if got != tt.expected {
			t.Errorf("AlgorithmFromExternal(%d) = %d, want %d", tt.external, got, tt.expected)
		}
		if got.External() != tt.external&0x1F {
			t.Errorf("AlgorithmID(%d).External() = %d, want %d", got, got.External(), tt.external&0x1F)
		}
	}
}

func TestNewAlgorithmID(t *testing.T) {
	if _, err := NewAlgorithmID(0); err == nil {
		t.Error("NewAlgorithmID(0) should fail")
	}
	if _, err := NewAlgorithmID(33); err == nil {
		t.Error("NewAlgorithmID(33) should fail")
	}
	a, err := NewAlgorithmID(32)
	if err != nil || a != 32 {
		t.Errorf("NewAlgorithmID(32) = %d, %v", a, err)
	}
}

func TestNewOperatorID(t *testing.T) {
	for _, v := range []int{0, 7, -1} {
		if _, err := NewOperatorID(v); err == nil {
			t.Errorf("NewOperatorID(%d) should fail", v)
		}
	}
	for v := 1; v <= 6; v++ {
		id, err := NewOperatorID(v)
		if err != nil {
			t.Fatalf("NewOperatorID(%d) error = %v", v, err)
		}
		if id.Index() != v-1 {
			t.Errorf("Index() = %d, want %d", id.Index(), v-1)
		}
	}
}

func TestCarriersAndModulatorsPartitionOperators(t *testing.T) {
	for a := AlgorithmID(1); a <= NumAlgorithms; a++ {
		c := Carriers(a)
		m := Modulators(a)
		if c|m != AllOperators {
			t.Errorf("algorithm %d: carriers %s | modulators %s != all", a, c, m)
		}
		if c&m != 0 {
			t.Errorf("algorithm %d: carriers %s and modulators %s overlap", a, c, m)
		}
		if !c.Contains(1) {
			t.Errorf("algorithm %d: operator 1 should always be a carrier", a)
		}
	}
}

func TestCarriersTable(t *testing.T) {
	tests := []struct {
		algorithm AlgorithmID
		expected  string
	}{
		{1, "{1,3}"},
		{5, "{1,3,5}"},
		{16, "{1}"},
		{19, "{1,4,5}"},
		{22, "{1,3,4,5}"},
		{28, "{1,3,6}"},
		{30, "{1,2,3,6}"},
		{32, "{1,2,3,4,5,6}"},
	}

	for _, tt := range tests {
		if got := Carriers(tt.algorithm).String(); got != tt.expected {
			t.Errorf("Carriers(%d) = %s, want %s", tt.algorithm, got, tt.expected)
		}
	}

	if Modulators(32) != 0 {
		t.Errorf("Modulators(32) = %s, want {}", Modulators(32))
	}
	if !IsCarrier(28, 6) || IsCarrier(28, 5) {
		t.Error("IsCarrier(28, ...) disagrees with the table")
	}
	if Carriers(0) != 0 || Carriers(33) != 0 {
		t.Error("invalid algorithms should have no carriers")
	}
}

func TestOperatorSetLen(t *testing.T) {
	if n := NewOperatorSet(1, 2, 6).Len(); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
	if n := AllOperators.Len(); n != 6 {
		t.Errorf("Len() = %d, want 6", n)
	}
}

func TestDefaultVoiceIsValid(t *testing.T) {
	v := DefaultVoice()
	if err := v.Validate(); err != nil {
		t.Fatalf("DefaultVoice().Validate() error = %v", err)
	}
	if v.Algorithm != 1 {
		t.Errorf("Algorithm = %d, want 1", v.Algorithm)
	}
	if v.PitchEnvelope[0].Level != 50 || v.PitchEnvelope[3].Rate != 99 {
		t.Errorf("PitchEnvelope = %+v", v.PitchEnvelope)
	}
	op := v.Operator(3)
	if op.ID != 3 || op.Breakpoint != DefaultBreakpoint || op.Envelope[3].Level != 0 {
		t.Errorf("Operator(3) = %+v", op)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Voice)
		field  string
	}{
		{"feedback", func(v *Voice) { v.Feedback = 8 }, FieldFeedback},
		{"transpose", func(v *Voice) { v.Transpose = -25 }, FieldTranspose},
		{"pitch envelope", func(v *Voice) { v.PitchEnvelope[2].Level = 100 }, "Pitch Envelope R3 Level"},
		{"lfo wave", func(v *Voice) { v.LFO.Wave = 6 }, FieldLFOWave},
		{"operator rate", func(v *Voice) { v.Operators[0].Envelope[0].Rate = 150 }, "R1 Rate"},
		{"operator detune", func(v *Voice) { v.Operators[5].Detune = 8 }, FieldDetune},
		{"operator curve", func(v *Voice) { v.Operators[2].RightCurve = 4 }, FieldRightCurve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultVoice()
			tt.mutate(&v)
			err := v.Validate()
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("Validate() error = %v, want *RangeError", err)
			}
			if re.Field != tt.field {
				t.Errorf("Field = %q, want %q", re.Field, tt.field)
			}
		})
	}
}

func TestNewNamedVoice(t *testing.T) {
	if _, err := NewNamedVoice("ELEVEN CHAR", DefaultVoice()); err == nil {
		t.Error("an 11 byte name should be rejected")
	}
	if _, err := NewNamedVoice("caf\xc3\xa9", DefaultVoice()); err == nil {
		t.Error("a non-ASCII name should be rejected")
	}
	nv, err := NewNamedVoice("", DefaultVoice())
	if err != nil {
		t.Fatalf("empty name error = %v", err)
	}
	nv = nv.WithMetadata(Metadata{Source: "file:///a.syx", ID: "file:///a.syx/x"})
	if nv.Metadata.IsZero() {
		t.Error("WithMetadata() did not attach metadata")
	}
	if !nv.WithoutMetadata().Metadata.IsZero() {
		t.Error("WithoutMetadata() kept metadata")
	}
}

func TestWithOperatorCopies(t *testing.T) {
	v := DefaultVoice()
	op := v.Operator(2)
	op.OutputLevel = 10
	w := v.WithOperator(op)
	if v.Operator(2).OutputLevel != 99 {
		t.Error("WithOperator modified the receiver")
	}
	if w.Operator(2).OutputLevel != 10 {
		t.Error("WithOperator did not replace the operator")
	}
}

func TestEnumJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Curve ScalingCurve `json:"curve"`
		Wave  LFOWave      `json:"wave"`
		Mode  OscillatorMode
	}{CurveExponentialPositive, WaveSampleAndHold, ModeFixed})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"curve":"exponentialPositive","wave":"sampleAndHold","Mode":"fixed"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var w LFOWave
	if err := w.UnmarshalText([]byte("sawUp")); err != nil || w != WaveSawUp {
		t.Errorf("UnmarshalText(sawUp) = %v, %v", w, err)
	}
	if err := w.UnmarshalText([]byte("noise")); err == nil {
		t.Error("UnmarshalText(noise) should fail")
	}
}

func TestAlgorithms(t *testing.T) {
	all := Algorithms()
	if len(all) != NumAlgorithms {
		t.Fatalf("Algorithms() returned %d entries", len(all))
	}
	for i, info := range all {
		if info.Algorithm != AlgorithmID(i+1) {
			t.Errorf("entry %d is algorithm %d", i, info.Algorithm)
		}
		if len(info.Carriers)+len(info.Modulators) != NumOperators {
			t.Errorf("algorithm %d: %d carriers + %d modulators", info.Algorithm, len(info.Carriers), len(info.Modulators))
		}
	}
	last := all[NumAlgorithms-1]
	if len(last.Carriers) != NumOperators || len(last.Modulators) != 0 {
		t.Errorf("algorithm 32 = %+v, want all carriers", last)
	}
}
