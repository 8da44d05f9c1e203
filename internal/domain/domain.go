package domain

import "context"

// Segment is a single timed caption line of a video transcript.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// Chunk is a bounded window of the transcript used as a retrieval unit.
// Position is the index of the chunk in splitting order.
type Chunk struct {
	Text     string
	Position int
}

// SearchResult is a matching chunk with a similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// QAEntry is one answered question. Session history is append-only and
// ordered by ask time.
type QAEntry struct {
	Question string
	Answer   string
}

// TranscriptFetcher retrieves the ordered transcript segments of a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]Segment, error)
}

// Chunker splits transcript text into overlapping chunks suitable for
// retrieval indexing.
type Chunker interface {
	Split(text string) []Chunk
}

// Generator produces an answer from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
