package chunker

import (
	"strings"
	"unicode/utf8"

	"ytchat/internal/domain"
)

// Default window geometry, in characters.
const (
	DefaultWindow  = 1000
	DefaultOverlap = 200
)

// cutSeparators, in preference order: paragraph break, sentence end,
// line break, word boundary. A hard character cut is the last resort.
var cutSeparators = []string{"\n\n", ". ", "! ", "? ", "\n", " "}

// Splitter splits text into overlapping fixed-size windows, preferring to
// cut at natural boundaries near the end of each window.
type Splitter struct {
	window  int
	overlap int
}

// NewSplitter creates a splitter with the given window and overlap sizes.
// Invalid values fall back to the defaults.
func NewSplitter(window, overlap int) *Splitter {
	if window <= 0 {
		window = DefaultWindow
	}
	if overlap < 0 || overlap >= window {
		overlap = window / 5
	}
	return &Splitter{window: window, overlap: overlap}
}

// Split cuts text into ordered overlapping chunks. Each window after the
// first starts overlap characters before the previous cut, so every byte of
// the input is covered by at least one chunk. Blank input yields no chunks.
func (s *Splitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []domain.Chunk
	start := 0
	for {
		end := start + s.window
		if end >= len(text) {
			chunks = append(chunks, domain.Chunk{Text: text[start:], Position: len(chunks)})
			return chunks
		}
		cut := s.findCut(text, start, end)
		chunks = append(chunks, domain.Chunk{Text: text[start:cut], Position: len(chunks)})
		next := cut - s.overlap
		if next <= start {
			next = start + (s.window - s.overlap)
		}
		start = next
	}
}

// findCut returns the position to end the current window at, looking for the
// latest natural boundary within the final overlap-sized region of the
// window. With no boundary in range it hard-cuts on a rune boundary.
func (s *Splitter) findCut(text string, start, end int) int {
	lo := end - s.overlap
	if lo <= start {
		lo = start + 1
	}
	region := text[lo:end]
	for _, sep := range cutSeparators {
		if i := strings.LastIndex(region, sep); i >= 0 {
			return lo + i + len(sep)
		}
	}
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
