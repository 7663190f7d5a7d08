package voice

// DefaultBreakpoint is C3
const DefaultBreakpoint = 39

// DefaultOperator returns the initial state of operator id
func DefaultOperator(id OperatorID) Operator {
	return Operator{
		ID:              id,
		Enabled:         true,
		FrequencyCoarse: 1,
		Mode:            ModeRatio,
		OutputLevel:     99,
		Envelope: Envelope{
			{Rate: 99, Level: 99},
			{Rate: 99, Level: 99},
			{Rate: 99, Level: 99},
			{Rate: 99, Level: 0},
		},
		Breakpoint: DefaultBreakpoint,
		LeftDepth:  99,
		RightDepth: 99,
		LeftCurve:  CurveLinearNegative,
		RightCurve: CurveLinearNegative,
	}
}

// DefaultVoice returns the initial voice state
func DefaultVoice() Voice {
	v := Voice{
		Algorithm: 1,
		PitchEnvelope: Envelope{
			{Rate: 99, Level: 50},
			{Rate: 99, Level: 50},
			{Rate: 99, Level: 50},
			{Rate: 99, Level: 50},
		},
		LFO: LFO{
			Wave:    WaveTriangle,
			KeySync: true,
		},
		OscKeySync: true,
	}
	for _, id := range OperatorIDs() {
		v.Operators[id.Index()] = DefaultOperator(id)
	}
	return v
}

// InitVoiceName is the name the synthesizer gives a freshly initialized voice
const InitVoiceName = "INIT VOICE"
