package dsp

import "math"

// PeakNormalize scales samples so the loudest absolute sample reaches
// target. A silent buffer (peak == 0) is returned unchanged.
func PeakNormalize(samples []float32, target float32) []float32 {
	var peak float32
	for _, s := range samples {
		abs := float32(math.Abs(float64(s)))
		if abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	gain := target / peak
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}
