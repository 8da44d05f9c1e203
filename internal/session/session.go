package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytchat/internal/domain"
	"ytchat/internal/embedding"
	"ytchat/internal/index"
	"ytchat/internal/prompt"
	"ytchat/internal/transcript"
	"ytchat/internal/vectorstore"
)

// State of the session: Empty until a video loads, Loaded until reset.
type State int

const (
	Empty State = iota
	Loaded
)

var (
	// ErrInvalidURL means no video id could be extracted from the input.
	ErrInvalidURL = errors.New("invalid video URL")
	// ErrNotLoaded means Ask was called before any video was loaded.
	ErrNotLoaded = errors.New("no video loaded")
)

// Config carries the per-question and per-load knobs of a session.
type Config struct {
	Languages    []string
	TopK         int
	MaxSentences int // transcript summary length
}

// Session owns everything tied to one loaded video: the similarity index,
// the active prompt template, and the ordered question/answer history.
// Exactly one action (Load, Ask, Reset) runs at a time; the UI enforces this
// by blocking input while a command is in flight.
type Session struct {
	fetcher    domain.TranscriptFetcher
	splitter   domain.Chunker
	embedder   embedding.Embedder
	generator  domain.Generator
	summarizer domain.Summarizer
	newStore   func() vectorstore.Storage
	template   *prompt.Template
	cfg        Config

	videoID string
	idx     *index.Index
	active  *prompt.Template
	summary string
	history []domain.QAEntry
}

// New creates an empty session. newStore is invoked once per successful load
// so a reset fully discards the previous index.
func New(
	fetcher domain.TranscriptFetcher,
	splitter domain.Chunker,
	embedder embedding.Embedder,
	generator domain.Generator,
	summarizer domain.Summarizer,
	newStore func() vectorstore.Storage,
	template *prompt.Template,
	cfg Config,
) *Session {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if template == nil {
		template = prompt.Default()
	}
	return &Session{
		fetcher:    fetcher,
		splitter:   splitter,
		embedder:   embedder,
		generator:  generator,
		summarizer: summarizer,
		newStore:   newStore,
		template:   template,
		cfg:        cfg,
	}
}

// State reports whether a video is currently loaded.
func (s *Session) State() State {
	if s.idx != nil {
		return Loaded
	}
	return Empty
}

// VideoID returns the id of the loaded video, or "".
func (s *Session) VideoID() string { return s.videoID }

// Summary returns the extractive transcript summary of the loaded video.
func (s *Session) Summary() string { return s.summary }

// History returns the answered questions of this session in ask order.
func (s *Session) History() []domain.QAEntry { return s.history }

// Load runs the whole ingest pipeline for a video URL: parse id, fetch
// transcript, chunk, embed, index. Any failure aborts the transition and the
// session keeps its previous state.
func (s *Session) Load(ctx context.Context, rawURL string) error {
	videoID := transcript.ExtractVideoID(rawURL)
	if videoID == "" {
		return ErrInvalidURL
	}

	segments, err := s.fetcher.Fetch(ctx, videoID, s.cfg.Languages)
	if err != nil {
		return fmt.Errorf("fetch transcript: %w", err)
	}
	text := transcript.JoinSegments(segments)

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return errors.New("transcript produced no chunks")
	}

	idx, err := index.Build(ctx, s.embedder, s.newStore(), chunks)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	summary := ""
	if s.summarizer != nil {
		if sum, err := s.summarizer.Summarize(text, s.cfg.MaxSentences); err == nil {
			summary = sum
		}
	}

	// Populate atomically: nothing above touched the session fields.
	s.Reset()
	s.videoID = videoID
	s.idx = idx
	s.active = s.template
	s.summary = summary
	return nil
}

// Ask retrieves the top-k chunks for the question, renders the prompt and
// generates an answer. On success the entry is appended to history; on
// failure history is untouched and the question can simply be resubmitted.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	if s.idx == nil {
		return "", ErrNotLoaded
	}
	chunks, err := s.idx.Query(ctx, question, s.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	rendered := s.active.Render(strings.Join(texts, "\n\n"), question)

	answer, err := s.generator.Generate(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	s.history = append(s.history, domain.QAEntry{Question: question, Answer: answer})
	return answer, nil
}

// Reset clears the loaded video, index, active template, summary and history
// unconditionally, returning to Empty.
func (s *Session) Reset() {
	s.videoID = ""
	s.idx = nil
	s.active = nil
	s.summary = ""
	s.history = nil
}
