// Package silence detects near-silent WAV files so the pipeline can skip
// transcribing a channel with no real audio in it.
package silence

import (
	"errors"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/ghardin1314/scribe/internal/conf"
)

var errInvalidWAV = errors.New("silence: not a valid WAV file")

// IsSilent reports whether the 16-bit PCM WAV file at path has RMS energy
// below the silence threshold. A file that cannot be opened or decoded is
// reported as not silent, so the caller still attempts transcription and
// surfaces the real I/O error there instead of silently dropping the
// channel.
func IsSilent(path string) bool {
	decoder, closer, err := openDecoder(path)
	if err != nil {
		return false
	}
	defer closer()

	buf, err := decoder.FullPCMBuffer()
	if err != nil || buf == nil {
		return false
	}

	var sumSq float64
	count := 0
	for _, s := range buf.Data {
		f := float64(s) / float64(math.MaxInt16)
		sumSq += f * f
		count++
	}

	if count == 0 {
		return true
	}

	rms := math.Sqrt(sumSq / float64(count))
	return rms < conf.SilenceRMSThreshold
}

func openDecoder(path string) (*wav.Decoder, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		_ = f.Close()
		return nil, nil, errInvalidWAV
	}
	return d, f.Close, nil
}
