package workerpool

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ghardin1314/scribe/internal/chunker"
	"github.com/ghardin1314/scribe/internal/conf"
	"github.com/ghardin1314/scribe/internal/output"
	"github.com/ghardin1314/scribe/internal/transcript"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	calls []string
	resp  map[string]*transcript.Transcript
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (*transcript.Transcript, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.resp[path]; ok {
		return t, nil
	}
	return &transcript.Transcript{}, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (m *fakeMetrics) ObserveChunk(outcome Outcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

// writeWAV writes a mono 16-bit PCM WAV so silence.IsSilent can read it:
// all-zero samples register as silent, non-zero samples as not silent.
func writeWAV(t *testing.T, dir, name string, pcm []int16) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, conf.TargetSampleRate, conf.TargetBitDepth, 1, 1)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{Format: &audio.Format{SampleRate: conf.TargetSampleRate, NumChannels: 1}, Data: data}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestWorkerPoolSkipsWhenBothSilent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	sysPath := writeWAV(t, dir, "sys.wav", make([]int16, 1000))
	micPath := writeWAV(t, dir, "mic.wav", make([]int16, 1000))

	pairs := make(chan chunker.ChunkPair, 1)
	metrics := &fakeMetrics{}
	writer := output.New(dir, filepath.Join(dir, "narrative.md"))
	fake := &fakeTranscriber{}

	handles := Run(context.Background(), pairs, Config{
		Concurrency: 1,
		Transcriber: fake,
		Writer:      writer,
		Metrics:     metrics,
	})

	pairs <- chunker.ChunkPair{Timestamp: "10-00-00", Date: "2026-07-30", SystemPath: sysPath, MicPath: micPath}
	close(pairs)
	Shutdown(handles)

	assert.Empty(t, fake.calls, "silent channels should never reach the transcriber")
	require.Len(t, metrics.outcomes, 1)
	assert.Equal(t, OutcomeSkipped, metrics.outcomes[0])
}

func TestWorkerPoolDeletesWAVsOnSuccessWithoutSaveAudio(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	loud := make([]int16, 1000)
	for i := range loud {
		loud[i] = 20000
	}
	sysPath := writeWAV(t, dir, "sys.wav", loud)
	micPath := writeWAV(t, dir, "mic.wav", make([]int16, 1000))

	pairs := make(chan chunker.ChunkPair, 1)
	writer := output.New(dir, filepath.Join(dir, "narrative.md"))
	fake := &fakeTranscriber{resp: map[string]*transcript.Transcript{
		sysPath: {Text: "hello", Duration: 1, Segments: []transcript.Segment{{Start: 0, End: 1, Text: "hello"}}},
	}}

	handles := Run(context.Background(), pairs, Config{
		Concurrency: 2,
		Transcriber: fake,
		Writer:      writer,
	})

	pairs <- chunker.ChunkPair{Timestamp: "10-00-00", Date: "2026-07-30", SystemPath: sysPath, MicPath: micPath}
	close(pairs)
	Shutdown(handles)

	_, err := os.Stat(sysPath)
	assert.True(t, os.IsNotExist(err), "wav should be deleted after a successful chunk when SaveAudio is false")

	jsonPath := filepath.Join(dir, "transcripts", "2026-07-30", "10-00-00.json")
	assert.FileExists(t, jsonPath)
}

func TestWorkerPoolRetainsWAVsOnFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	loud := make([]int16, 1000)
	for i := range loud {
		loud[i] = 20000
	}
	sysPath := writeWAV(t, dir, "sys.wav", loud)
	micPath := writeWAV(t, dir, "mic.wav", make([]int16, 1000))

	pairs := make(chan chunker.ChunkPair, 1)
	writer := output.New(dir, filepath.Join(dir, "narrative.md"))
	fake := &fakeTranscriber{err: assertError{"boom"}}

	handles := Run(context.Background(), pairs, Config{
		Concurrency: 1,
		Transcriber: fake,
		Writer:      writer,
	})

	pairs <- chunker.ChunkPair{Timestamp: "10-00-00", Date: "2026-07-30", SystemPath: sysPath, MicPath: micPath}
	close(pairs)
	Shutdown(handles)

	assert.FileExists(t, sysPath)
	assert.FileExists(t, micPath)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
