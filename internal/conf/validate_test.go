package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Capture.System = true
	s.Chunk.Duration = 30
	s.Chunk.Overlap = 5
	s.Chunk.MixMode = MixModeStereo
	s.Chunk.OutputDir = "output"
	s.Transcribe.Enabled = true
	s.Transcribe.Concurrency = 2
	s.Transcribe.APIURL = ""
	return s
}

func TestValidateSettingsDefaultsToBothCaptureSources(t *testing.T) {
	s := validSettings()
	s.Capture.System = false
	s.Capture.Mic = false

	require.NoError(t, ValidateSettings(s))
	assert.True(t, s.Capture.System)
	assert.True(t, s.Capture.Mic)
}

func TestValidateSettingsRejectsOverlapNotLessThanDuration(t *testing.T) {
	s := validSettings()
	s.Chunk.Overlap = 30

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap must be smaller")
}

func TestValidateSettingsAllowsZeroDurationForSingleFileMode(t *testing.T) {
	s := validSettings()
	s.Chunk.Duration = 0
	s.Chunk.Overlap = 0

	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsNegativeDuration(t *testing.T) {
	s := validSettings()
	s.Chunk.Duration = -1

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestValidateSettingsRejectsUnknownMixMode(t *testing.T) {
	s := validSettings()
	s.Chunk.MixMode = "quad"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chunk mix mode")
}

func TestValidateSettingsRequiresAPIKeyWhenAPIURLSet(t *testing.T) {
	s := validSettings()
	s.Transcribe.APIURL = "https://api.openai.com/v1"
	s.Transcribe.APIKey = ""

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestValidateSettingsAllowsMissingAPIKeyForLocalBackend(t *testing.T) {
	s := validSettings()
	s.Transcribe.APIURL = ""
	s.Transcribe.LocalPort = 9000
	s.Transcribe.APIKey = ""

	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsRequiresMQTTBrokerAndTopicWhenEnabled(t *testing.T) {
	s := validSettings()
	s.MQTT.Enabled = true
	s.MQTT.Broker = ""
	s.MQTT.Topic = "scribe/chunks"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt broker")
}
