package transcript

import "encoding/json"

// Decode parses a backend verbose_json response body, tolerating both wire
// shapes: top-level words, or words nested per segment. If the top-level
// words array is empty, it is flattened from segments[*].words.
func Decode(body []byte) (*Transcript, error) {
	var raw rawTranscript
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	t := &Transcript{
		Text:     raw.Text,
		Duration: raw.Duration,
		Segments: make([]Segment, len(raw.Segments)),
		Words:    raw.Words,
	}
	for i, s := range raw.Segments {
		t.Segments[i] = Segment{Start: s.Start, End: s.End, Text: s.Text}
	}

	if len(t.Words) == 0 {
		for _, s := range raw.Segments {
			t.Words = append(t.Words, s.Words...)
		}
	}

	return t, nil
}
