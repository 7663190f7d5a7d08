// Package transform derives modified copies of voices
package transform

import (
	"fmt"
	"strings"

	"github.com/james-see/dx7syx/pkg/voice"
)

// Transform maps a voice to a modified copy
type Transform func(voice.NamedVoice) voice.NamedVoice

// Apply runs t over voices and returns the results in order
func Apply(voices []voice.NamedVoice, t Transform) []voice.NamedVoice {
	out := make([]voice.NamedVoice, len(voices))
	for i, nv := range voices {
		out[i] = t(nv)
	}
	return out
}

// Affect selects which operators a transform touches
type Affect int

const (
	AffectCarriers Affect = iota
	AffectModulators
	AffectAll
)

var affectNames = []string{"carriers", "modulators", "all"}

func (a Affect) String() string {
	if a < 0 || int(a) >= len(affectNames) {
		return fmt.Sprintf("affect(%d)", int(a))
	}
	return affectNames[a]
}

// ParseAffect parses "carriers", "modulators" or "all"
func ParseAffect(s string) (Affect, error) {
	v, err := voice.ParseEnum(affectNames, strings.ToLower(s), "operator selection")
	return Affect(v), err
}

// Operators returns the operators selected by a under algorithm alg
func (a Affect) Operators(alg voice.AlgorithmID) voice.OperatorSet {
	switch a {
	case AffectCarriers:
		return voice.Carriers(alg)
	case AffectModulators:
		return voice.Modulators(alg)
	default:
		return voice.AllOperators
	}
}

// StaccatoParameters configures Staccato
type StaccatoParameters struct {
	Affect        Affect
	ModifyAttack  bool
	ModifyRelease bool
}

// Staccato sharpens the envelopes of the selected operators: ModifyAttack
// sets the R1 rate to maximum and ModifyRelease sets the R4 rate to maximum.
func Staccato(p StaccatoParameters) Transform {
	return func(nv voice.NamedVoice) voice.NamedVoice {
		v := nv.Voice
		for _, id := range p.Affect.Operators(v.Algorithm).IDs() {
			op := v.Operator(id)
			if p.ModifyAttack {
				op.Envelope[0].Rate = voice.RangeRate.Max
			}
			if p.ModifyRelease {
				op.Envelope[3].Rate = voice.RangeRate.Max
			}
			v = v.WithOperator(op)
		}
		return nv.WithVoice(v)
	}
}
