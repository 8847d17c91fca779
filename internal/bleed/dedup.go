// Package bleed implements the acoustic bleed deduplicator: it strips
// microphone words that are echoes of system-output words picked up
// through the speakers, so the "you" speaker in the merged transcript
// reflects only the user's own speech.
package bleed

import (
	"strings"
	"unicode"

	"github.com/ghardin1314/scribe/internal/transcript"
)

// matchTolerance is the maximum time difference, in seconds, for a mic
// word to be considered a possible echo of a system word.
const matchTolerance = 1.0

// minRunLength is the shortest run of consecutive time-aligned matches
// that is treated as sustained echo rather than incidental coincidence.
const minRunLength = 3

// coverageThreshold is the fraction of a segment's duration that must be
// covered by removed words before the whole segment's text is cleared
// rather than rebuilt from the surviving words.
const coverageThreshold = 0.8

// normalize lowercases w and strips everything but letters and digits, so
// punctuation and casing differences don't defeat the match.
func normalize(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Dedup removes mic words and segment text that are acoustic echoes of
// system's audio, per the run-based algorithm: a mic word counts as a
// candidate match when its normalized form equals some system word's
// normalized form and the two fall within matchTolerance seconds of each
// other; only runs of >= minRunLength consecutive candidate matches are
// actually removed, since isolated coincidences are more likely the user
// genuinely saying the same word. Returns a new Transcript; mic is not
// mutated. When either side is nil, mic is returned as is.
func Dedup(system, mic *transcript.Transcript) *transcript.Transcript {
	if system == nil || mic == nil {
		return mic
	}

	match := make([]bool, len(mic.Words))
	for i, m := range mic.Words {
		mn := normalize(m.Word)
		if mn == "" {
			continue
		}
		for _, s := range system.Words {
			if normalize(s.Word) == mn && absFloat(m.Start-s.Start) < matchTolerance {
				match[i] = true
				break
			}
		}
	}

	removed := make([]bool, len(mic.Words))
	runStart := -1
	flushRun := func(end int) {
		if runStart < 0 {
			return
		}
		if end-runStart >= minRunLength {
			for i := runStart; i < end; i++ {
				removed[i] = true
			}
		}
		runStart = -1
	}
	for i, m := range match {
		if m {
			if runStart < 0 {
				runStart = i
			}
		} else {
			flushRun(i)
		}
	}
	flushRun(len(match))

	keptWords := make([]transcript.Word, 0, len(mic.Words))
	for i, w := range mic.Words {
		if !removed[i] {
			keptWords = append(keptWords, w)
		}
	}

	segments := make([]transcript.Segment, 0, len(mic.Segments))
	for _, seg := range mic.Segments {
		segDuration := seg.End - seg.Start
		var bleedCoverage float64
		for i, w := range mic.Words {
			if removed[i] && w.Start >= seg.Start && w.End <= seg.End {
				bleedCoverage += w.End - w.Start
			}
		}

		if segDuration > 0 && bleedCoverage/segDuration > coverageThreshold {
			continue // text cleared, then discarded since it ends up empty
		}

		var words []string
		for _, w := range keptWords {
			if w.Start >= seg.Start && w.End <= seg.End {
				words = append(words, strings.TrimSpace(w.Word))
			}
		}
		text := strings.Join(words, " ")
		if text == "" {
			continue
		}
		segments = append(segments, transcript.Segment{Start: seg.Start, End: seg.End, Text: text})
	}

	return &transcript.Transcript{
		Text:     mic.Text,
		Duration: mic.Duration,
		Segments: segments,
		Words:    keptWords,
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
