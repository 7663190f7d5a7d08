package sysex

// Packed operator and voice bytes. Unpacked values are range checked by the
// record decoder; pack functions expect in-range input.

// Level scaling curves (operator byte 11)
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	| -   -   -   - |  LEFT |  RIGHT|
func unpackCurves(b byte) (left, right int) {
	return int(b>>2) & 0x3, int(b) & 0x3
}

func packCurves(left, right int) byte {
	return byte(left&0x3)<<2 | byte(right&0x3)
}

// Detune and rate scaling (operator byte 12). Detune carries a +7 bias.
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	| - |     DETUNE    |    RS     |
func unpackDetuneRateScaling(b byte) (detune, rateScaling int) {
	return int(b>>3)&0xF - 7, int(b) & 0x7
}

func packDetuneRateScaling(detune, rateScaling int) byte {
	return byte((detune+7)&0xF)<<3 | byte(rateScaling&0x7)
}

// Key velocity and amplitude modulation sensitivity (operator byte 13).
// The velocity field is not masked so stray high bits fail the range check.
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	|        VELOCITY       |  AMS  |
func unpackSensitivity(b byte) (velocity, ampMod int) {
	return int(b >> 2), int(b) & 0x3
}

func packSensitivity(velocity, ampMod int) byte {
	return byte(velocity&0x7)<<2 | byte(ampMod&0x3)
}

// Frequency coarse and oscillator mode (operator byte 15)
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	|          COARSE           | M |
func unpackOscillator(b byte) (coarse, mode int) {
	return int(b >> 1), int(b) & 0x1
}

func packOscillator(coarse, mode int) byte {
	return byte(coarse&0x1F)<<1 | byte(mode&0x1)
}

// LFO pitch modulation sensitivity, wave and key sync (voice byte 116)
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	| - |    PMS    |    WAVE   | S |
func unpackLFO(b byte) (pitchModSen, wave int, keySync bool) {
	return int(b>>4) & 0x7, int(b>>1) & 0x7, b&0x1 != 0
}

func packLFO(pitchModSen, wave int, keySync bool) byte {
	return byte(pitchModSen&0x7)<<4 | byte(wave&0x7)<<1 | boolToByte(keySync, 0x1)
}

// Feedback and oscillator key sync (voice byte 111)
//
//	| 7 | 6 | 5 | 4 | 3 | 2 | 1 | 0 |
//	| -   -   -   - |OKS|    FB     |
func unpackFeedback(b byte) (feedback int, oscKeySync bool) {
	return int(b) & 0x7, b&0x8 != 0
}

func packFeedback(feedback int, oscKeySync bool) byte {
	return byte(feedback&0x7) | boolToByte(oscKeySync, 0x8)
}

func boolToByte(v bool, bit byte) byte {
	if v {
		return bit
	}
	return 0
}
