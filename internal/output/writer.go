// Package output writes the three per-chunk artifacts: a pretty-printed
// JSON file, an appended line in the session JSON-lines log, and an
// appended block in the human-readable narrative document.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ghardin1314/scribe/internal/errors"
	"github.com/ghardin1314/scribe/internal/transcript"
)

// Writer durably persists chunk results under OutputDir/transcripts/{date}
// and appends to a single narrative document at NarrativePath. Writers may
// be shared across worker goroutines: appends to the jsonl and narrative
// files are serialized per file path so concurrent workers never
// interleave partial writes.
type Writer struct {
	OutputDir     string
	NarrativePath string

	mu        sync.Mutex
	fileLocks map[string]*sync.Mutex
}

// New creates a Writer. NarrativePath is created on first chunk write.
func New(outputDir, narrativePath string) *Writer {
	return &Writer{
		OutputDir:     outputDir,
		NarrativePath: narrativePath,
		fileLocks:     make(map[string]*sync.Mutex),
	}
}

func (w *Writer) lockFor(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.fileLocks[path]
	if !ok {
		l = &sync.Mutex{}
		w.fileLocks[path] = l
	}
	return l
}

// Write persists result's three artifacts: transcripts/{date}/{timestamp}.json
// (full write), transcripts/{date}/session.jsonl (append), and the
// narrative document (append). date is the chunk's local date
// (YYYY-MM-DD); timestamp is its local time (HH-MM-SS), matching the
// chunk pair descriptor that produced it.
func (w *Writer) Write(date, timestamp string, result transcript.ChunkResult) error {
	dir := filepath.Join(w.OutputDir, "transcripts", date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("dir", dir).Build()
	}

	if err := w.writeChunkJSON(dir, timestamp, result); err != nil {
		return err
	}
	if err := w.appendSessionLine(dir, result); err != nil {
		return err
	}
	if err := w.appendNarrative(date, result); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeChunkJSON(dir, timestamp string, result transcript.ChunkResult) error {
	path := filepath.Join(dir, timestamp+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chunk result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("path", path).Build()
	}
	return nil
}

func (w *Writer) appendSessionLine(dir string, result transcript.ChunkResult) error {
	path := filepath.Join(dir, "session.jsonl")
	lock := w.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	line, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling session line: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("path", path).Build()
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("path", path).Build()
	}
	return nil
}

func (w *Writer) appendNarrative(date string, result transcript.ChunkResult) error {
	path := w.NarrativePath
	lock := w.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).Component("output").Category(errors.CategoryIO).
				Context("dir", dir).Build()
		}
	}

	isNew := true
	if info, err := os.Stat(path); err == nil {
		isNew = info.Size() == 0
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("path", path).Build()
	}
	defer f.Close()

	var b strings.Builder
	if isNew {
		fmt.Fprintf(&b, "# Transcript — %s\n\n", date)
	}

	start := strings.ReplaceAll(result.TimestampStart, "-", ":")
	end := strings.ReplaceAll(result.TimestampEnd, "-", ":")
	fmt.Fprintf(&b, "## %s — %s (%s)\n\n", start, end, formatDuration(result.DurationSeconds))

	for _, group := range groupConsecutiveSpeakers(result.Segments) {
		label := speakerLabel(group.speaker)
		fmt.Fprintf(&b, "> **%s** (%s): %s\n\n", label, formatDuration(group.start), strings.TrimSpace(group.text))
	}

	b.WriteString("---\n\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return errors.New(err).Component("output").Category(errors.CategoryIO).
			Context("path", path).Build()
	}
	return nil
}

type speakerGroup struct {
	speaker string
	start   float64
	text    string
}

// groupConsecutiveSpeakers merges adjacent segments sharing the same
// speaker into one narrative block, concatenating their texts.
func groupConsecutiveSpeakers(segments []transcript.SpeakerSegment) []speakerGroup {
	var groups []speakerGroup
	for _, seg := range segments {
		if len(groups) > 0 && groups[len(groups)-1].speaker == string(seg.Speaker) {
			groups[len(groups)-1].text += seg.Text
			continue
		}
		groups = append(groups, speakerGroup{speaker: string(seg.Speaker), start: seg.Start, text: seg.Text})
	}
	return groups
}

func speakerLabel(speaker string) string {
	switch transcript.Speaker(speaker) {
	case transcript.SpeakerYou:
		return "You"
	case transcript.SpeakerOther:
		return "Other"
	default:
		return speaker
	}
}

// formatDuration renders seconds as "m:SS" when minutes > 0, else "Ns".
func formatDuration(seconds float64) string {
	total := int(seconds)
	m := total / 60
	s := total % 60
	if m > 0 {
		return fmt.Sprintf("%d:%02d", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
