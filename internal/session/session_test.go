package session

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"ytchat/internal/chunker"
	"ytchat/internal/domain"
	"ytchat/internal/prompt"
	"ytchat/internal/transcript"
	"ytchat/internal/vectorstore"
	"ytchat/internal/vectorstore/memory"
)

type stubFetcher struct {
	segments []domain.Segment
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(_ context.Context, videoID string, languages []string) ([]domain.Segment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

// hashEmbedder produces a deterministic unit vector per text.
type hashEmbedder struct{ err error }

func (e *hashEmbedder) Name() string { return "hash" }

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, 4)
		for j, r := range t {
			v[j%4] += float64(r)
		}
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range v {
				v[j] /= norm
			}
		}
		out[i] = v
	}
	return out, nil
}

func (e *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func newTestSession(fetcher *stubFetcher, gen *stubGenerator) *Session {
	return New(
		fetcher,
		chunker.NewSplitter(1000, 200),
		&hashEmbedder{},
		gen,
		nil,
		func() vectorstore.Storage { return memory.NewStorage() },
		prompt.Default(),
		Config{Languages: []string{"en"}, TopK: 4},
	)
}

func threeSegments() []domain.Segment {
	return []domain.Segment{{Text: "Hello"}, {Text: "world"}, {Text: "today"}}
}

func TestLoadSuccess(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	s := newTestSession(fetcher, &stubGenerator{answer: "ok"})

	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.State() != Loaded {
		t.Error("state should be Loaded")
	}
	if s.VideoID() != "ABC123" {
		t.Errorf("VideoID = %q, want ABC123", s.VideoID())
	}
	// 17-char transcript fits one window
	if s.idx.Len() != 1 {
		t.Errorf("index has %d chunks, want 1", s.idx.Len())
	}
	if len(s.History()) != 0 {
		t.Error("fresh load should have empty history")
	}
}

func TestLoadInvalidURL(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	s := newTestSession(fetcher, &stubGenerator{})

	err := s.Load(context.Background(), "https://example.com/watch?list=42")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("got %v, want ErrInvalidURL", err)
	}
	if s.State() != Empty {
		t.Error("state should remain Empty")
	}
	if fetcher.calls != 0 {
		t.Error("fetcher must not be called for an invalid URL")
	}
}

func TestLoadTranscriptsDisabled(t *testing.T) {
	fetcher := &stubFetcher{err: transcript.ErrTranscriptsDisabled}
	s := newTestSession(fetcher, &stubGenerator{})

	err := s.Load(context.Background(), "https://example.com/watch?v=ABC123")
	if !errors.Is(err, transcript.ErrTranscriptsDisabled) {
		t.Errorf("got %v, want ErrTranscriptsDisabled wrapped", err)
	}
	if s.State() != Empty {
		t.Error("state should remain Empty after a fetch failure")
	}
}

func TestLoadEmbeddingFailureKeepsEmpty(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	s := newTestSession(fetcher, &stubGenerator{})
	s.embedder = &hashEmbedder{err: errors.New("quota exceeded")}

	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err == nil {
		t.Fatal("expected error")
	}
	if s.State() != Empty {
		t.Error("no partial index may survive a failed build")
	}
}

func TestAskAppendsHistory(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	gen := &stubGenerator{answer: "It is a greeting."}
	s := newTestSession(fetcher, gen)
	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err != nil {
		t.Fatal(err)
	}

	answer, err := s.Ask(context.Background(), "What is this about?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "It is a greeting." {
		t.Errorf("answer = %q", answer)
	}
	history := s.History()
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].Question != "What is this about?" || history[0].Answer != "It is a greeting." {
		t.Errorf("unexpected entry: %+v", history[0])
	}
	// The single chunk is the whole transcript and must be in the prompt.
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	for _, want := range []string{"Hello world today", "What is this about?"} {
		if !strings.Contains(gen.prompts[0], want) {
			t.Errorf("prompt missing %q:\n%s", want, gen.prompts[0])
		}
	}
}

func TestAskWhileEmpty(t *testing.T) {
	s := newTestSession(&stubFetcher{}, &stubGenerator{})
	if _, err := s.Ask(context.Background(), "anything"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("got %v, want ErrNotLoaded", err)
	}
}

func TestAskGenerationFailureLeavesHistory(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	gen := &stubGenerator{err: errors.New("rate limited")}
	s := newTestSession(fetcher, gen)
	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Ask(context.Background(), "What is this about?"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.History()) != 0 {
		t.Error("failed ask must not touch history")
	}

	// The question can be retried once the generator recovers.
	gen.err = nil
	gen.answer = "retried fine"
	if _, err := s.Ask(context.Background(), "What is this about?"); err != nil {
		t.Fatal(err)
	}
	if len(s.History()) != 1 {
		t.Errorf("history has %d entries after retry, want 1", len(s.History()))
	}
}

func TestDuplicateQuestionsAppend(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	s := newTestSession(fetcher, &stubGenerator{answer: "same"})
	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Ask(context.Background(), "repeat me"); err != nil {
			t.Fatal(err)
		}
	}
	if len(s.History()) != 3 {
		t.Errorf("history has %d entries, want 3 (no deduplication)", len(s.History()))
	}
}

func TestResetClearsEverything(t *testing.T) {
	fetcher := &stubFetcher{segments: threeSegments()}
	s := newTestSession(fetcher, &stubGenerator{answer: "x"})
	if err := s.Load(context.Background(), "https://example.com/watch?v=ABC123"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ask(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}

	s.Reset()
	if s.State() != Empty {
		t.Error("state should be Empty after reset")
	}
	if s.VideoID() != "" || s.Summary() != "" || len(s.History()) != 0 {
		t.Error("reset must clear video id, summary and history")
	}

	// Reset from Empty is a no-op, not a panic.
	s.Reset()
	if s.State() != Empty {
		t.Error("double reset should stay Empty")
	}
}
