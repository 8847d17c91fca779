package dsp

import (
	"math"

	"github.com/ghardin1314/scribe/internal/conf"
	"github.com/tphakala/go-audio-resampler/resampler"
)

// Resample converts a block of mono float32 samples from fromRate to
// toRate using the FFT-based resampler, processing it in the resampler's
// native window size and zero-padding the final partial window. A fresh
// resampler is built for each call, so no filter state carries over
// between chunks.
func Resample(mono []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate || len(mono) == 0 {
		out := make([]float32, len(mono))
		copy(out, mono)
		return out, nil
	}

	rs := resampler.New(fromRate, toRate, conf.ResamplerChunkSize, conf.ResamplerSubChunks, conf.ResamplerOutChannels)
	chunkSize := rs.InputFramesNext()

	var output []float32
	pos := 0
	for pos+chunkSize <= len(mono) {
		result, err := rs.Process(mono[pos : pos+chunkSize])
		if err != nil {
			return nil, err
		}
		output = append(output, result...)
		pos += chunkSize
	}

	if pos < len(mono) {
		remaining := len(mono) - pos
		lastChunk := make([]float32, chunkSize)
		copy(lastChunk, mono[pos:])

		result, err := rs.Process(lastChunk)
		if err != nil {
			return nil, err
		}

		expected := int(math.Ceil(float64(remaining) * float64(toRate) / float64(fromRate)))
		if expected > len(result) {
			expected = len(result)
		}
		output = append(output, result[:expected]...)
	}

	return output, nil
}
