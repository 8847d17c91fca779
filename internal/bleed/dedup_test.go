package bleed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghardin1314/scribe/internal/transcript"
)

func TestDedupRemovesRunOfThreeOrMoreMatches(t *testing.T) {
	system := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "hello", Start: 1.0, End: 1.2},
			{Word: "world", Start: 1.5, End: 1.7},
			{Word: "today", Start: 2.0, End: 2.2},
			{Word: "sunny", Start: 2.5, End: 2.7},
		},
	}
	mic := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "hello", Start: 1.2, End: 1.4},
			{Word: "world", Start: 1.6, End: 1.8},
			{Word: "today", Start: 2.1, End: 2.3},
			{Word: "great", Start: 3.0, End: 3.2},
		},
	}

	out := Dedup(system, mic)
	require.Len(t, out.Words, 1)
	assert.Equal(t, "great", out.Words[0].Word)
}

func TestDedupPreservesShortCoincidence(t *testing.T) {
	system := &transcript.Transcript{
		Words: []transcript.Word{{Word: "yes", Start: 0.5, End: 0.7}},
	}
	mic := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "yes", Start: 0.6, End: 0.8},
			{Word: "absolutely", Start: 1.0, End: 1.5},
		},
	}

	out := Dedup(system, mic)
	require.Len(t, out.Words, 2)
	assert.Equal(t, "yes", out.Words[0].Word)
	assert.Equal(t, "absolutely", out.Words[1].Word)
}

func TestDedupRespectsTimeTolerance(t *testing.T) {
	system := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "a", Start: 0.0, End: 0.1},
			{Word: "b", Start: 1.0, End: 1.1},
			{Word: "c", Start: 2.0, End: 2.1},
		},
	}
	mic := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "a", Start: 5.0, End: 5.1}, // far outside tolerance
			{Word: "b", Start: 1.05, End: 1.15},
			{Word: "c", Start: 2.05, End: 2.15},
		},
	}

	out := Dedup(system, mic)
	// only a 2-run of matches (b, c) -- below the 3-run threshold, so nothing removed
	require.Len(t, out.Words, 3)
}

func TestDedupClearsSegmentAboveCoverageThreshold(t *testing.T) {
	system := &transcript.Transcript{
		Words: []transcript.Word{
			{Word: "one", Start: 0.0, End: 0.3},
			{Word: "two", Start: 0.5, End: 0.8},
			{Word: "three", Start: 1.0, End: 1.3},
		},
	}
	// The removed run covers 1.5s of the 1.6s segment (0.94 > 0.8), so the
	// segment is dropped even though "yes" survives dedup.
	mic := &transcript.Transcript{
		Segments: []transcript.Segment{{Start: 0, End: 1.6, Text: "one two three yes"}},
		Words: []transcript.Word{
			{Word: "one", Start: 0.0, End: 0.5},
			{Word: "two", Start: 0.5, End: 1.0},
			{Word: "three", Start: 1.0, End: 1.5},
			{Word: "yes", Start: 1.5, End: 1.6},
		},
	}

	out := Dedup(system, mic)
	assert.Empty(t, out.Segments)
}

func TestDedupNilSidesPassThrough(t *testing.T) {
	mic := &transcript.Transcript{Text: "hi"}
	assert.Same(t, mic, Dedup(nil, mic))
	assert.Nil(t, Dedup(mic, nil))
}
