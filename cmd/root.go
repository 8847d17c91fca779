// Package cmd implements scribe's single-binary CLI: flag parsing, the
// default dual-source capture+transcribe mode, and the one-shot
// --transcribe / --transcribe-pair modes.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ghardin1314/scribe/internal/app"
	"github.com/ghardin1314/scribe/internal/conf"
	"github.com/ghardin1314/scribe/internal/logging"
)

// RootCommand builds the scribe CLI around an already-loaded settings
// value (see conf.Load), binding every flag in SPEC_FULL's flag table
// directly onto it.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var transcribeFile string
	var transcribePair string
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "Capture system audio and microphone, transcribe, and merge into a narrative transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Output.NarrativePath = args[0]
			}

			logging.Init()
			if settings.Debug {
				logging.SetLevel(slog.LevelDebug)
			}
			if settings.Main.Log.Path != "" {
				lj := rotatingLogFile(settings)
				if err := logging.SetOutput(lj, os.Stdout); err != nil {
					return fmt.Errorf("redirecting log output to %s: %w", settings.Main.Log.Path, err)
				}
			}

			if transcribeFile != "" {
				return app.TranscribeFile(cmd.Context(), settings, transcribeFile)
			}
			if transcribePair != "" {
				sys, mic, err := splitPair(transcribePair)
				if err != nil {
					return err
				}
				return app.TranscribePair(cmd.Context(), settings, sys, mic)
			}

			return app.Run(cmd.Context(), settings)
		},
	}

	if err := setupFlags(rootCmd, settings, &transcribeFile, &transcribePair, &configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return rootCmd
}

// Execute runs the CLI end-to-end: load settings, build the root
// command, install the interrupt handler, and run. It returns a process
// exit code (0 on success, 1 on any fatal error, per §6).
func Execute() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// --config is applied before the root command is built so its values
	// become the flag defaults; cobra's own flag parsing then still wins
	// over it for anything the user passes explicitly on the CLI.
	if path := scanConfigFlag(os.Args[1:]); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading --config %s: %v\n", path, err)
			return 1
		}
		if err := viper.Unmarshal(settings); err != nil {
			fmt.Fprintf(os.Stderr, "Error: unmarshaling --config %s: %v\n", path, err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := RootCommand(settings)
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// scanConfigFlag looks for --config's value without fully parsing args,
// since the config file must be loaded before pflag registers the rest of
// the flags (whose defaults are read from settings at registration time).
func scanConfigFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

// rotatingLogFile builds the lumberjack writer backing --log-path, using
// the same rotation-type-to-maxAge/maxBackups mapping as
// logging.NewFileLogger so the two log sinks behave consistently.
func rotatingLogFile(settings *conf.Settings) *lumberjack.Logger {
	maxSizeMB := 100
	if mb := int(settings.Main.Log.MaxSize / (1024 * 1024)); mb > 0 {
		maxSizeMB = mb
	}

	maxBackups, maxAge := 3, 28
	switch settings.Main.Log.Rotation {
	case conf.RotationDaily:
		maxBackups, maxAge = 30, 1
	case conf.RotationWeekly:
		maxBackups, maxAge = 4, 7
	}

	return &lumberjack.Logger{
		Filename:   settings.Main.Log.Path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}
}

func splitPair(spec string) (sys, mic string, err error) {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--transcribe-pair expects SYS,MIC, got %q", spec)
	}
	return parts[0], parts[1], nil
}

// setupFlags binds every CLI flag from the spec's external-interface
// flag table onto settings, defaulting each to whatever conf.Load
// already resolved from defaults/config-file/env so an unspecified flag
// never clobbers a config-file or environment value.
func setupFlags(cmd *cobra.Command, settings *conf.Settings, transcribeFile, transcribePair, configPath *string) error {
	flags := cmd.Flags()

	flags.BoolVar(&settings.Capture.System, "system", settings.Capture.System, "Capture system output only")
	flags.BoolVar(&settings.Capture.Mic, "mic", settings.Capture.Mic, "Capture microphone only")
	flags.Var(newMixModeValue(&settings.Chunk.MixMode), "mix-mode", "Dual-source output layout: stereo or split")
	flags.IntVar(&settings.Chunk.Duration, "chunk-duration", settings.Chunk.Duration, "Seconds per chunk (0 disables chunking)")
	flags.IntVar(&settings.Chunk.Overlap, "overlap", settings.Chunk.Overlap, "Seconds of overlap between consecutive chunks")
	flags.StringVar(&settings.Chunk.OutputDir, "output-dir", settings.Chunk.OutputDir, "Intermediate files root")
	flags.StringVar(&settings.Output.NarrativePath, "output", settings.Output.NarrativePath, "Narrative document path")
	flags.IntVar(&settings.Transcribe.Concurrency, "concurrency", settings.Transcribe.Concurrency, "Transcription worker count")

	noTranscribe := false
	flags.BoolVar(&noTranscribe, "no-transcribe", false, "Capture only, skip transcription")

	flags.BoolVar(&settings.Chunk.SaveAudio, "save-audio", settings.Chunk.SaveAudio, "Keep WAVs after transcription")
	flags.StringVar(&settings.Transcribe.APIURL, "api-url", settings.Transcribe.APIURL, "Remote transcription endpoint (else local)")
	flags.StringVar(&settings.Transcribe.Model, "model", settings.Transcribe.Model, "Model identifier forwarded to the backend")
	flags.IntVar(&settings.Transcribe.LocalPort, "local-port", settings.Transcribe.LocalPort, "Port for a locally-spawned transcription server")

	flags.StringVar(transcribeFile, "transcribe", "", "One-shot: transcribe a single WAV, print JSON")
	flags.StringVar(transcribePair, "transcribe-pair", "", "One-shot: transcribe two WAVs (SYS,MIC), merge, print JSON")

	flags.StringVar(configPath, "config", "", "Load a YAML config file instead of (or layered under) flags/env")
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Verbose structured logging")
	flags.StringVar(&settings.Main.Log.Path, "log-path", settings.Main.Log.Path, "Redirect the JSON structured log to a file with rotation")

	flags.BoolVar(&settings.MQTT.Enabled, "mqtt-enabled", settings.MQTT.Enabled, "Enable the chunk-completion MQTT publisher")
	flags.StringVar(&settings.MQTT.Broker, "mqtt-broker", settings.MQTT.Broker, "MQTT broker URL")
	flags.StringVar(&settings.MQTT.Topic, "mqtt-topic", settings.MQTT.Topic, "MQTT topic for chunk-completion events")

	flags.StringVar(&settings.Metrics.Listen, "metrics-listen", settings.Metrics.Listen, "Expose a Prometheus metrics endpoint and liveness probe at ADDR")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		// conf.Load already applied the "neither -> both" capture fallback,
		// so a lone --system or --mic has to switch the other source off.
		if flags.Changed("system") && !flags.Changed("mic") {
			settings.Capture.Mic = false
		}
		if flags.Changed("mic") && !flags.Changed("system") {
			settings.Capture.System = false
		}
		if noTranscribe {
			settings.Transcribe.Enabled = false
			// conf.Load forced split mode while transcription was still on;
			// restore the configured layout unless --mix-mode was given.
			if !flags.Changed("mix-mode") {
				settings.Chunk.MixMode = conf.MixMode(viper.GetString("chunk.mixmode"))
			}
		}
		if flags.Changed("mqtt-broker") || flags.Changed("mqtt-topic") {
			settings.MQTT.Enabled = true
		}
		if flags.Changed("metrics-listen") {
			settings.Metrics.Enabled = true
		}
		return conf.ValidateSettings(settings)
	}

	return nil
}

// mixModeValue adapts conf.MixMode to pflag.Value so --mix-mode can be
// bound with validation instead of a bare StringVar.
type mixModeValue struct {
	target *conf.MixMode
}

func newMixModeValue(target *conf.MixMode) *mixModeValue {
	return &mixModeValue{target: target}
}

func (v *mixModeValue) String() string {
	if v.target == nil {
		return ""
	}
	return string(*v.target)
}

func (v *mixModeValue) Set(s string) error {
	switch conf.MixMode(s) {
	case conf.MixModeStereo, conf.MixModeSplit:
		*v.target = conf.MixMode(s)
		return nil
	default:
		return fmt.Errorf("invalid --mix-mode %q, want stereo or split", s)
	}
}

func (v *mixModeValue) Type() string { return "string" }
