package dsp

import "github.com/ghardin1314/scribe/internal/conf"

// Process runs one captured buffer through the full normalization chain —
// downmix, resample, peak-normalize, quantize — and returns canonical
// 16-bit PCM samples ready to write to a WAV file.
func Process(interleaved []float32, nativeRate, nativeChannels int) ([]int16, error) {
	mono := Downmix(interleaved, nativeChannels)
	resampled, err := Resample(mono, nativeRate, conf.TargetSampleRate)
	if err != nil {
		return nil, err
	}
	normalized := PeakNormalize(resampled, conf.PeakNormalizeTarget)
	return Quantize(normalized), nil
}
