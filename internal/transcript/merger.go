package transcript

import "sort"

// Merge combines the optional system and mic transcripts for one chunk
// into a single time-sorted, speaker-labeled segment list. Either
// transcript may be nil (its channel was silent or skipped). Bleed
// deduplication of the mic transcript, if both are present, is the
// caller's responsibility (see internal/bleed) and must run before Merge.
func Merge(system, mic *Transcript) Merged {
	duration := 0.0
	if system != nil && system.Duration > duration {
		duration = system.Duration
	}
	if mic != nil && mic.Duration > duration {
		duration = mic.Duration
	}

	var segments []SpeakerSegment
	if system != nil {
		segments = append(segments, speakerSegments(system, SpeakerOther)...)
	}
	if mic != nil {
		segments = append(segments, speakerSegments(mic, SpeakerYou)...)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	return Merged{Duration: duration, Segments: segments}
}

// speakerSegments relabels each segment of t with speaker and attaches the
// subset of t's words whose span [start, end] falls entirely within the
// segment's own [start, end].
func speakerSegments(t *Transcript, speaker Speaker) []SpeakerSegment {
	out := make([]SpeakerSegment, 0, len(t.Segments))
	for _, seg := range t.Segments {
		var words []Word
		for _, w := range t.Words {
			if w.Start >= seg.Start && w.End <= seg.End {
				words = append(words, w)
			}
		}
		out = append(out, SpeakerSegment{
			Speaker: speaker,
			Start:   seg.Start,
			End:     seg.End,
			Text:    seg.Text,
			Words:   words,
		})
	}
	return out
}
