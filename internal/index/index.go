package index

import (
	"context"
	"errors"
	"fmt"

	"ytchat/internal/domain"
	"ytchat/internal/embedding"
	"ytchat/internal/vectorstore"
)

// Index is a similarity index over the chunks of one transcript. It is built
// once per loaded video, read-only afterwards, and discarded on session reset.
type Index struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	size     int
}

// Build embeds every chunk and stores the vectors. Any failure leaves no
// partial index behind: the caller gets nil and keeps its previous state.
func Build(ctx context.Context, embedder embedding.Embedder, store vectorstore.Storage, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to index")
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if err := store.Init(len(vectors[0])); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}
	return &Index{embedder: embedder, store: store, size: len(chunks)}, nil
}

// Query returns the k chunks most similar to the question, most similar
// first. Fewer than k stored chunks means all of them come back.
func (ix *Index) Query(ctx context.Context, question string, k int) ([]domain.Chunk, error) {
	vec, err := ix.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	results, err := ix.store.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return ix.size }
