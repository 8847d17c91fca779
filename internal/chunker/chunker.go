// Package chunker drains both capture sources into fixed-duration WAV
// chunks, retaining a configurable overlap tail between consecutive
// chunks.
package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	scribeaudio "github.com/ghardin1314/scribe/internal/audio"
	"github.com/ghardin1314/scribe/internal/conf"
	"github.com/ghardin1314/scribe/internal/dsp"
)

// ChunkPair names the split-mode WAV files produced for one time window.
// Only split mode populates both paths for the transcription pipeline;
// stereo mode writes a single mixed file and is not transcribed pair-wise.
type ChunkPair struct {
	Timestamp  string // "HH-MM-SS" in local time
	Date       string // "YYYY-MM-DD" in local time
	SystemPath string
	MicPath    string
}

// Config controls chunk sizing and on-disk layout.
type Config struct {
	ChunkDuration time.Duration
	Overlap       time.Duration
	OutputDir     string
	MixMode       conf.MixMode

	// OnProgress, if set, is called with the running flushed-chunk count
	// every time it is reported to the diagnostic stream (see
	// progressInterval), so an optional metrics sink can mirror it.
	OnProgress func(count int)
}

const recvPollInterval = 2 * time.Millisecond
const progressInterval = 5 * time.Second

// Run drains system and mic (either may be nil when its capture role is
// disabled) until ctx is cancelled, writing chunk files as they fill and
// emitting a ChunkPair on pairs for every split-mode chunk. The send never
// blocks: when pairs is full, that chunk's pair is dropped and its two WAVs
// are removed. It performs a final flush of any partial buffer before
// returning.
func Run(ctx context.Context, system, mic scribeaudio.Source, cfg Config, pairs chan<- ChunkPair, logger *slog.Logger) error {
	var sysRate, sysCh, micRate, micCh int
	if system != nil {
		sysRate, sysCh = system.NativeSampleRate(), system.NativeChannels()
	}
	if mic != nil {
		micRate, micCh = mic.NativeSampleRate(), mic.NativeChannels()
	}

	overlap := cfg.Overlap
	if cfg.ChunkDuration > 0 && overlap >= cfg.ChunkDuration {
		overlap = cfg.ChunkDuration - time.Second
		if overlap < 0 {
			overlap = 0
		}
	}

	sysChunkSamples := samplesFor(cfg.ChunkDuration, sysRate, sysCh)
	micChunkSamples := samplesFor(cfg.ChunkDuration, micRate, micCh)
	sysOverlapSamples := samplesFor(overlap, sysRate, sysCh)
	micOverlapSamples := samplesFor(overlap, micRate, micCh)

	date := time.Now().Format("2006-01-02")
	dir, err := chunkDir(cfg.OutputDir, date)
	if err != nil {
		return err
	}

	var sysBuf, micBuf []float32
	chunkCount := 0
	lastReport := time.Now()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		gotData := false
		if system != nil {
			for {
				buf, ok := system.ReceiveNextBuffer(0)
				if !ok {
					break
				}
				sysBuf = append(sysBuf, buf...)
				gotData = true
			}
		}
		if mic != nil {
			for {
				buf, ok := mic.ReceiveNextBuffer(0)
				if !ok {
					break
				}
				micBuf = append(micBuf, buf...)
				gotData = true
			}
		}

		if !gotData {
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(recvPollInterval):
			}
		}

		if (sysChunkSamples > 0 && len(sysBuf) >= sysChunkSamples) ||
			(micChunkSamples > 0 && len(micBuf) >= micChunkSamples) {
			if err := flush(dir, date, sysBuf, micBuf, sysRate, sysCh, micRate, micCh, cfg.MixMode, pairs); err != nil {
				return err
			}
			chunkCount++
			sysBuf = retainTail(sysBuf, sysOverlapSamples)
			micBuf = retainTail(micBuf, micOverlapSamples)
		}

		if time.Since(lastReport) >= progressInterval {
			if logger != nil {
				logger.Info("chunker progress", "chunks", chunkCount)
			}
			if cfg.OnProgress != nil {
				cfg.OnProgress(chunkCount)
			}
			lastReport = time.Now()
		}
	}

	if err := flush(dir, date, sysBuf, micBuf, sysRate, sysCh, micRate, micCh, cfg.MixMode, pairs); err != nil {
		return err
	}
	if len(sysBuf) > 0 || len(micBuf) > 0 {
		chunkCount++
	}
	if logger != nil {
		logger.Info("chunker finished", "chunks", chunkCount)
	}
	return nil
}

func samplesFor(d time.Duration, rate, channels int) int {
	if d <= 0 || rate <= 0 || channels <= 0 {
		return 0
	}
	return int(d.Seconds()) * rate * channels
}

func retainTail(buf []float32, overlapSamples int) []float32 {
	if overlapSamples >= len(buf) {
		return buf
	}
	drain := len(buf) - overlapSamples
	tail := make([]float32, len(buf)-drain)
	copy(tail, buf[drain:])
	return tail
}

func chunkDir(outputDir, date string) (string, error) {
	dir := filepath.Join(outputDir, "audio", date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chunk output dir: %w", err)
	}
	return dir, nil
}

func flush(dir, date string, sysBuf, micBuf []float32, sysRate, sysCh, micRate, micCh int, mixMode conf.MixMode, pairs chan<- ChunkPair) error {
	if len(sysBuf) == 0 && len(micBuf) == 0 {
		return nil
	}

	var sysPCM, micPCM []int16
	var err error
	if len(sysBuf) > 0 {
		sysPCM, err = dsp.Process(sysBuf, sysRate, sysCh)
		if err != nil {
			return fmt.Errorf("processing system buffer: %w", err)
		}
	}
	if len(micBuf) > 0 {
		micPCM, err = dsp.Process(micBuf, micRate, micCh)
		if err != nil {
			return fmt.Errorf("processing mic buffer: %w", err)
		}
	}

	timestamp := time.Now().Format("15-04-05")

	switch mixMode {
	case conf.MixModeSplit:
		sysPath := filepath.Join(dir, timestamp+"_system.wav")
		micPath := filepath.Join(dir, timestamp+"_mic.wav")
		if err := writeWAV(sysPath, sysPCM, 1); err != nil {
			return err
		}
		if err := writeWAV(micPath, micPCM, 1); err != nil {
			return err
		}
		if pairs != nil {
			select {
			case pairs <- ChunkPair{Timestamp: timestamp, Date: date, SystemPath: sysPath, MicPath: micPath}:
			default:
				// Worker pool queue is full: this pair will never reach
				// cleanupWAVs, so remove the files here instead of
				// leaking them on disk.
				_ = os.Remove(sysPath)
				_ = os.Remove(micPath)
			}
		}
	default: // stereo
		stereo := interleaveStereo(sysPCM, micPCM)
		path := filepath.Join(dir, timestamp+".wav")
		if err := writeWAV(path, stereo, 2); err != nil {
			return err
		}
	}

	return nil
}

func interleaveStereo(system, mic []int16) []int16 {
	n := len(system)
	if len(mic) > n {
		n = len(mic)
	}
	out := make([]int16, 0, n*2)
	for i := 0; i < n; i++ {
		var s, m int16
		if i < len(system) {
			s = system[i]
		}
		if i < len(mic) {
			m = mic[i]
		}
		out = append(out, s, m)
	}
	return out
}

func writeWAV(path string, pcm []int16, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, conf.TargetSampleRate, conf.TargetBitDepth, channels, 1)
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: conf.TargetSampleRate, NumChannels: channels},
		Data:   data,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav data to %s: %w", path, err)
	}
	return enc.Close()
}
