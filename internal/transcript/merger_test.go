package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSortsByStartAscending(t *testing.T) {
	system := &Transcript{
		Duration: 10,
		Segments: []Segment{{Start: 5, End: 8, Text: "later"}},
	}
	mic := &Transcript{
		Duration: 6,
		Segments: []Segment{{Start: 0, End: 3, Text: "earlier"}},
	}

	merged := Merge(system, mic)
	require.Len(t, merged.Segments, 2)
	assert.Equal(t, "earlier", merged.Segments[0].Text)
	assert.Equal(t, SpeakerYou, merged.Segments[0].Speaker)
	assert.Equal(t, "later", merged.Segments[1].Text)
	assert.Equal(t, SpeakerOther, merged.Segments[1].Speaker)
	assert.Equal(t, 10.0, merged.Duration)
}

func TestMergeHandlesMissingSide(t *testing.T) {
	system := &Transcript{
		Duration: 30,
		Segments: []Segment{{Start: 0, End: 1, Text: "hello"}},
	}
	merged := Merge(system, nil)
	require.Len(t, merged.Segments, 1)
	assert.Equal(t, SpeakerOther, merged.Segments[0].Speaker)
	assert.Equal(t, 30.0, merged.Duration)
}

func TestMergeAttributesWordsWithinSegmentBounds(t *testing.T) {
	system := &Transcript{
		Segments: []Segment{{Start: 0, End: 2, Text: "hi there"}},
		Words: []Word{
			{Word: "hi", Start: 0, End: 0.5},
			{Word: "there", Start: 0.5, End: 1.9},
			{Word: "outside", Start: 2.5, End: 3},
		},
	}

	merged := Merge(system, nil)
	require.Len(t, merged.Segments, 1)
	words := merged.Segments[0].Words
	require.Len(t, words, 2)
	for _, w := range words {
		assert.GreaterOrEqual(t, w.Start, merged.Segments[0].Start)
		assert.LessOrEqual(t, w.End, merged.Segments[0].End)
	}
}

func TestMergeKeepsInsertionOrderOnTies(t *testing.T) {
	system := &Transcript{Segments: []Segment{{Start: 1, End: 2, Text: "sys"}}}
	mic := &Transcript{Segments: []Segment{{Start: 1, End: 2, Text: "mic"}}}

	merged := Merge(system, mic)
	require.Len(t, merged.Segments, 2)
	assert.Equal(t, "sys", merged.Segments[0].Text)
	assert.Equal(t, "mic", merged.Segments[1].Text)
}
