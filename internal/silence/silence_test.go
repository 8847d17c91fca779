package silence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: 16000, NumChannels: 1},
		Data:   samples,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestIsSilentDetectsSilence(t *testing.T) {
	path := writeWAV(t, make([]int, 16000))
	require.True(t, IsSilent(path))
}

func TestIsSilentDetectsLoudAudio(t *testing.T) {
	samples := make([]int, 16000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 20000
		} else {
			samples[i] = -20000
		}
	}
	path := writeWAV(t, samples)
	require.False(t, IsSilent(path))
}

func TestIsSilentReturnsFalseForMissingFile(t *testing.T) {
	require.False(t, IsSilent(filepath.Join(t.TempDir(), "missing.wav")))
}
