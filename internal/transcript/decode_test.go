package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTopLevelWords(t *testing.T) {
	body := []byte(`{
		"text": "hello world",
		"duration": 1.5,
		"segments": [{"start": 0, "end": 1.5, "text": "hello world"}],
		"words": [{"word": "hello", "start": 0, "end": 0.5}, {"word": "world", "start": 0.6, "end": 1.5}]
	}`)

	out, err := Decode(body)
	require.NoError(t, err)
	assert.Len(t, out.Words, 2)
	assert.Equal(t, "hello", out.Words[0].Word)
}

func TestDecodeFlattensNestedSegmentWords(t *testing.T) {
	body := []byte(`{
		"text": "hello world",
		"duration": 1.5,
		"segments": [{
			"start": 0, "end": 1.5, "text": "hello world",
			"words": [{"word": "hello", "start": 0, "end": 0.5}, {"word": "world", "start": 0.6, "end": 1.5}]
		}]
	}`)

	out, err := Decode(body)
	require.NoError(t, err)
	require.Len(t, out.Words, 2)
	assert.Equal(t, "world", out.Words[1].Word)
	require.Len(t, out.Segments, 1)
	assert.Equal(t, "hello world", out.Segments[0].Text)
}
