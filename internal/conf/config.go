// conf/config.go
package conf

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the full runtime configuration, assembled from defaults,
// an optional YAML file, environment variables, and CLI flags, in that
// order of increasing precedence.
type Settings struct {
	Debug bool

	Main struct {
		Log LogConfig
	}

	Capture    CaptureSettings
	Chunk      ChunkSettings
	Transcribe TranscribeSettings
	Output     OutputSettings
	MQTT       MQTTSettings
	Metrics    MetricsSettings
}

// CaptureSettings selects which audio streams are recorded.
type CaptureSettings struct {
	System bool // capture system output
	Mic    bool // capture microphone
}

// ChunkSettings controls chunk duration, overlap, and on-disk layout.
type ChunkSettings struct {
	Duration  int // seconds per chunk
	Overlap   int // seconds of overlap between consecutive chunks
	MixMode   MixMode
	OutputDir string
	SaveAudio bool
}

// TranscribeSettings configures the speech-to-text backend and worker pool.
type TranscribeSettings struct {
	Enabled     bool
	APIURL      string
	Model       string
	LocalPort   int
	APIKey      string
	Concurrency int
}

// OutputSettings configures the narrative Markdown writer.
type OutputSettings struct {
	NarrativePath string
}

// MQTTSettings configures the optional chunk-completion publisher.
type MQTTSettings struct {
	Enabled bool
	Broker  string
	Topic   string
}

// MetricsSettings configures the optional status/metrics HTTP server.
type MetricsSettings struct {
	Enabled bool
	Listen  string
}

// LogConfig defines the configuration for a log file.
type LogConfig struct {
	Enabled     bool
	Path        string
	Rotation    RotationType
	MaxSize     int64
	RotationDay time.Weekday
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads defaults, an optional config file, and environment variables
// into a fresh Settings value using viper. The caller (cmd/root.go) binds
// CLI flags onto the returned value afterwards, since cobra owns flag
// parsing.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		log.Printf("environment variable warning: %v", err)
	}

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings, loading defaults on first use if
// nothing has called Load yet (used by packages like logging that need a
// settings value even outside the CLI entrypoint's normal startup path).
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
