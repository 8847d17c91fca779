// Package workerpool dispatches chunk-pair descriptors from the chunker
// to a bounded set of transcription workers: each worker runs the
// silence check, calls the transcription backend, applies bleed dedup
// and merging, and writes the three output artifacts for one chunk.
package workerpool

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghardin1314/scribe/internal/bleed"
	"github.com/ghardin1314/scribe/internal/chunker"
	"github.com/ghardin1314/scribe/internal/output"
	"github.com/ghardin1314/scribe/internal/silence"
	"github.com/ghardin1314/scribe/internal/transcript"
)

// Transcriber is the capability processChunk needs from
// internal/transcribeapi.Client — narrowed to an interface so the pool
// can be exercised with a fake backend in tests.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*transcript.Transcript, error)
}

// Outcome classifies how a worker disposed of one chunk pair, for
// metrics and logging.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped" // both channels silent
	OutcomeFailed  Outcome = "failed"
)

// Metrics receives a per-chunk outcome and processing latency. Nil is a
// valid no-op sink.
type Metrics interface {
	ObserveChunk(outcome Outcome, latency time.Duration)
}

// Notifier is sent a completed chunk result after all three output
// artifacts have been durably written. Nil is a valid no-op sink.
type Notifier interface {
	Publish(result transcript.ChunkResult)
}

// Config configures every worker in the pool.
type Config struct {
	Concurrency int
	SaveAudio   bool // when true, workers do not delete WAVs after success
	Transcriber Transcriber
	Writer      *output.Writer
	Metrics     Metrics  // optional
	Notifier    Notifier // optional
	Logger      *slog.Logger
}

// Handles are the join handles returned by Run; pass them to Shutdown.
type Handles struct {
	wg *sync.WaitGroup
}

// Run starts cfg.Concurrency workers consuming pairs. The caller closes
// pairs (typically when the chunker exits) to terminate the pool; call
// Shutdown afterward to join all workers.
func Run(ctx context.Context, pairs <-chan chunker.ChunkPair, cfg Config) Handles {
	var wg sync.WaitGroup
	n := cfg.Concurrency
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(ctx, id, pairs, cfg)
		}(i)
	}
	return Handles{wg: &wg}
}

// Shutdown blocks until every worker started by Run has exited. The
// caller must have already closed the pairs channel passed to Run.
func Shutdown(h Handles) {
	h.wg.Wait()
}

func worker(ctx context.Context, id int, pairs <-chan chunker.ChunkPair, cfg Config) {
	log := cfg.Logger
	for pair := range pairs {
		correlationID := uuid.NewString()
		start := time.Now()
		outcome, err := processChunk(ctx, pair, cfg, correlationID)
		latency := time.Since(start)

		if cfg.Metrics != nil {
			cfg.Metrics.ObserveChunk(outcome, latency)
		}

		if log != nil {
			switch outcome {
			case OutcomeSuccess:
				log.Info("chunk transcribed", "worker", id, "chunk_id", correlationID, "timestamp", pair.Timestamp, "latency", latency)
			case OutcomeSkipped:
				log.Info("chunk skipped, both channels silent", "worker", id, "chunk_id", correlationID, "timestamp", pair.Timestamp)
			case OutcomeFailed:
				log.Error("chunk processing failed, wav files retained", "worker", id, "chunk_id", correlationID, "timestamp", pair.Timestamp, "error", err)
			}
		}
	}
}

// processChunk implements §4.8: silence check both sides, transcribe
// each non-silent side, dedup+merge, build the chunk result, write
// outputs, and clean up WAVs on success.
func processChunk(ctx context.Context, pair chunker.ChunkPair, cfg Config, correlationID string) (Outcome, error) {
	sysSilent := silence.IsSilent(pair.SystemPath)
	micSilent := silence.IsSilent(pair.MicPath)

	if sysSilent && micSilent {
		cleanupWAVs(pair, cfg.SaveAudio)
		return OutcomeSkipped, nil
	}

	var systemT, micT *transcript.Transcript
	var err error

	if !sysSilent {
		systemT, err = cfg.Transcriber.Transcribe(ctx, pair.SystemPath)
		if err != nil {
			return OutcomeFailed, err
		}
	}
	if !micSilent {
		micT, err = cfg.Transcriber.Transcribe(ctx, pair.MicPath)
		if err != nil {
			return OutcomeFailed, err
		}
	}

	if systemT != nil && micT != nil {
		micT = bleed.Dedup(systemT, micT)
	}

	merged := transcript.Merge(systemT, micT)

	result := transcript.ChunkResult{
		TimestampStart:  pair.Timestamp,
		TimestampEnd:    time.Now().Format("15-04-05"),
		DurationSeconds: merged.Duration,
		Segments:        merged.Segments,
		AudioFiles:      transcript.AudioFiles{System: pair.SystemPath, Mic: pair.MicPath},
	}

	if err := cfg.Writer.Write(pair.Date, pair.Timestamp, result); err != nil {
		return OutcomeFailed, err
	}

	if cfg.Notifier != nil {
		cfg.Notifier.Publish(result)
	}

	cleanupWAVs(pair, cfg.SaveAudio)
	return OutcomeSuccess, nil
}

func cleanupWAVs(pair chunker.ChunkPair, saveAudio bool) {
	if saveAudio {
		return
	}
	if pair.SystemPath != "" {
		_ = os.Remove(pair.SystemPath)
	}
	if pair.MicPath != "" {
		_ = os.Remove(pair.MicPath)
	}
}
