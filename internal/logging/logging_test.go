package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForServiceAddsServiceAttribute(t *testing.T) {
	Init()

	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf, &bytes.Buffer{}))

	logger := ForService("chunker")
	require.NotNil(t, logger)
	logger.Info("chunk ready", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "chunker", entry["service"])
	assert.Equal(t, "chunk ready", entry["msg"])
}

func TestDefaultReplaceAttrTruncatesFloats(t *testing.T) {
	attr := defaultReplaceAttr(nil, slog.Float64("peak", 0.123456))
	assert.InDelta(t, 0.12, attr.Value.Float64(), 0.001)
}

func TestDefaultReplaceAttrCustomLevelNames(t *testing.T) {
	attr := defaultReplaceAttr(nil, slog.Any(slog.LevelKey, LevelTrace))
	assert.Equal(t, "TRACE", attr.Value.String())
}

func TestSetOutputRejectsNilWriters(t *testing.T) {
	err := SetOutput(nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "structuredOutput"))
}
