// Package app wires the capture pipeline, worker pool, and output
// writer together into the process's main run loop, plus the one-shot
// transcribe modes used by --transcribe and --transcribe-pair.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghardin1314/scribe/internal/audio"
	"github.com/ghardin1314/scribe/internal/bleed"
	"github.com/ghardin1314/scribe/internal/chunker"
	"github.com/ghardin1314/scribe/internal/conf"
	"github.com/ghardin1314/scribe/internal/errors"
	"github.com/ghardin1314/scribe/internal/httpclient"
	"github.com/ghardin1314/scribe/internal/logging"
	"github.com/ghardin1314/scribe/internal/notify"
	"github.com/ghardin1314/scribe/internal/output"
	"github.com/ghardin1314/scribe/internal/silence"
	"github.com/ghardin1314/scribe/internal/status"
	"github.com/ghardin1314/scribe/internal/transcribeapi"
	"github.com/ghardin1314/scribe/internal/transcript"
	"github.com/ghardin1314/scribe/internal/workerpool"
)

// Run captures the configured sources, chunks and transcribes them, and
// blocks until ctx is cancelled (the interrupt handler installed by
// cmd/root.go does this on SIGINT/SIGTERM). It always performs a final
// partial-chunk flush and joins every worker before returning.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logging.ForService("app")
	start := time.Now()

	manager := audio.NewManager(settings.Capture.System, settings.Capture.Mic, "", "")
	if err := manager.Start(ctx); err != nil {
		return errors.New(err).Component("app").Category(errors.CategoryDevice).Build()
	}
	defer func() {
		if err := manager.Stop(); err != nil && log != nil {
			log.Warn("error stopping capture sources", "error", err)
		}
	}()

	var metrics workerpool.Metrics
	var recorder *status.Recorder
	var statusServer *status.Server
	if settings.Metrics.Enabled {
		recorder = status.NewRecorder()
		metrics = recorder
		statusServer = status.NewServer()
	}

	var notifier workerpool.Notifier
	var publisher *notify.Publisher
	if settings.MQTT.Enabled {
		p, err := notify.NewPublisher(notify.Config{Broker: settings.MQTT.Broker, Topic: settings.MQTT.Topic}, log)
		if err != nil {
			return errors.New(err).Component("app").Category(errors.CategoryMQTT).Build()
		}
		publisher = p
		notifier = p
		defer publisher.Close()
	}

	var pairs chan chunker.ChunkPair
	var handles workerpool.Handles
	if settings.Transcribe.Enabled {
		transcriber, err := buildTranscriber(settings)
		if err != nil {
			return err
		}
		writer := output.New(settings.Chunk.OutputDir, narrativePath(settings))
		pairs = make(chan chunker.ChunkPair, 4)
		handles = workerpool.Run(ctx, pairs, workerpool.Config{
			Concurrency: settings.Transcribe.Concurrency,
			SaveAudio:   settings.Chunk.SaveAudio,
			Transcriber: transcriber,
			Writer:      writer,
			Metrics:     metrics,
			Notifier:    notifier,
			Logger:      logging.ForService("workerpool"),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	if statusServer != nil {
		g.Go(func() error {
			return statusServer.Start(gctx, settings.Metrics.Listen)
		})
	}

	chunkerCfg := chunker.Config{
		ChunkDuration: time.Duration(settings.Chunk.Duration) * time.Second,
		Overlap:       time.Duration(settings.Chunk.Overlap) * time.Second,
		OutputDir:     settings.Chunk.OutputDir,
		MixMode:       settings.Chunk.MixMode,
	}
	if recorder != nil {
		chunkerCfg.OnProgress = recorder.SetChunkerProgress
	}

	g.Go(func() error {
		defer func() {
			if pairs != nil {
				close(pairs)
			}
		}()
		return chunker.Run(gctx, manager.System, manager.Mic, chunkerCfg, pairs, logging.ForService("chunker"))
	})

	err := g.Wait()

	if settings.Transcribe.Enabled {
		workerpool.Shutdown(handles)
	}

	if log != nil {
		log.Info("run finished", "elapsed", time.Since(start))
	}
	return err
}

// narrativePath returns the configured narrative document path, defaulting
// to "transcript-{today}.md" when unset (the flag/config default can't
// embed the current date the way the spec's default does).
func narrativePath(settings *conf.Settings) string {
	if settings.Output.NarrativePath != "" {
		return settings.Output.NarrativePath
	}
	return fmt.Sprintf("transcript-%s.md", time.Now().Format("2006-01-02"))
}

func buildTranscriber(settings *conf.Settings) (*transcribeapi.Client, error) {
	url := settings.Transcribe.APIURL
	if url == "" {
		url = transcribeapi.LocalURL(settings.Transcribe.LocalPort)
	}
	cfg := httpclient.DefaultConfig()
	hc := httpclient.New(&cfg)
	return transcribeapi.New(hc, transcribeapi.Config{
		APIURL: url,
		APIKey: settings.Transcribe.APIKey,
		Model:  settings.Transcribe.Model,
	}), nil
}

// TranscribeFile implements the --transcribe=FILE one-shot mode: it
// transcribes a single WAV and prints the resulting transcript as JSON.
func TranscribeFile(ctx context.Context, settings *conf.Settings, path string) error {
	transcriber, err := buildTranscriber(settings)
	if err != nil {
		return err
	}

	if silence.IsSilent(path) {
		return printJSON(&transcript.Transcript{})
	}

	t, err := transcriber.Transcribe(ctx, path)
	if err != nil {
		return err
	}
	return printJSON(t)
}

// TranscribePair implements the --transcribe-pair=SYS,MIC one-shot mode:
// it transcribes both WAVs, applies bleed dedup and merging, and prints
// the merged result as JSON.
func TranscribePair(ctx context.Context, settings *conf.Settings, sysPath, micPath string) error {
	transcriber, err := buildTranscriber(settings)
	if err != nil {
		return err
	}

	var systemT, micT *transcript.Transcript
	sysSilent := silence.IsSilent(sysPath)
	micSilent := silence.IsSilent(micPath)

	if !sysSilent {
		systemT, err = transcriber.Transcribe(ctx, sysPath)
		if err != nil {
			return err
		}
	}
	if !micSilent {
		micT, err = transcriber.Transcribe(ctx, micPath)
		if err != nil {
			return err
		}
	}
	if systemT != nil && micT != nil {
		micT = bleed.Dedup(systemT, micT)
	}

	merged := transcript.Merge(systemT, micT)
	return printJSON(merged)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
