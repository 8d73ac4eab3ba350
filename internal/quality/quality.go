// Package quality computes the bounded round-trip signal quality metric.
package quality

import "math"

// Score bounds for the reporting scale.
const (
	MinScore = 0.0
	MaxScore = 100.0

	// snrOffset maps the practically observed SNR range of the codec
	// onto [0,100]: raw SNR in dB is unbounded and centers near 0 dB at
	// low bitrates.
	snrOffset = 50.0
)

// Score compares an original frame against its round-tripped
// reconstruction and returns a quality score in [0,100].
//
// Length mismatch scores 0. Zero error power scores 100. Otherwise the
// score is 10*log10(signalPower/errorPower) + 50, clamped to [0,100].
func Score(original, decoded []int16) float64 {
	if len(original) != len(decoded) || len(original) == 0 {
		return MinScore
	}

	var signalPower, errorPower float64
	for i := range original {
		s := float64(original[i])
		e := s - float64(decoded[i])
		signalPower += s * s
		errorPower += e * e
	}
	n := float64(len(original))
	signalPower /= n
	errorPower /= n

	if errorPower == 0 {
		return MaxScore
	}

	score := 10*math.Log10(signalPower/errorPower) + snrOffset
	return math.Max(MinScore, math.Min(MaxScore, score))
}
