// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main log file
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/scribe.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", int64(10*1024*1024))
	viper.SetDefault("main.log.rotationday", 0)

	// Capture sources: left unset so validateCaptureSettings' "neither set
	// -> both" fallback decides the default; a lone --system/--mic then
	// selects only that source instead of being silently ignored.
	viper.SetDefault("capture.system", false)
	viper.SetDefault("capture.mic", false)

	// Chunking
	viper.SetDefault("chunk.duration", 30)
	viper.SetDefault("chunk.overlap", 0)
	viper.SetDefault("chunk.mixmode", string(MixModeStereo))
	viper.SetDefault("chunk.outputdir", "output")
	viper.SetDefault("chunk.saveaudio", false)

	// Transcription
	viper.SetDefault("transcribe.enabled", true)
	viper.SetDefault("transcribe.apiurl", "")
	viper.SetDefault("transcribe.model", "whisper-1")
	viper.SetDefault("transcribe.localport", 0)
	viper.SetDefault("transcribe.apikey", "")
	viper.SetDefault("transcribe.concurrency", 2)

	// Output
	// Left empty by default: internal/app resolves it to
	// "transcript-{today}.md" at startup, since viper defaults can't embed
	// the current date.
	viper.SetDefault("output.narrativepath", "")

	// MQTT
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "scribe/chunks")

	// Metrics/status server
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "0.0.0.0:8090")
}
