package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownmixAveragesChannels(t *testing.T) {
	interleaved := []float32{1.0, -1.0, 0.5, 0.5}
	mono := Downmix(interleaved, 2)
	assert.Equal(t, []float32{0, 0.5}, mono)
}

func TestDownmixPassesThroughMono(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, in, Downmix(in, 1))
}

func TestPeakNormalizeScalesToTarget(t *testing.T) {
	samples := []float32{0.5, -0.25, 0.1}
	out := PeakNormalize(samples, 0.9)
	assert.InDelta(t, 0.9, out[0], 1e-6)
}

func TestPeakNormalizeLeavesSilenceUnchanged(t *testing.T) {
	samples := []float32{0, 0, 0}
	out := PeakNormalize(samples, 0.9)
	assert.Equal(t, samples, out)
}

func TestQuantizeClampsOutOfRange(t *testing.T) {
	out := Quantize([]float32{1.5, -1.5, 0.5})
	assert.Equal(t, int16(32767), out[0])
	assert.Equal(t, int16(-32767), out[1])
	assert.Equal(t, int16(16383), out[2])
}

func TestResampleNoOpWhenRatesMatch(t *testing.T) {
	out, err := Resample([]float32{0.1, 0.2, 0.3}, 16000, 16000)
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, out)
}
