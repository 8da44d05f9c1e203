package embedding

import "context"

// Embedder converts text into numeric vectors for similarity comparison.
// EmbedBatch is called once over the full chunk corpus when an index is
// built; EmbedQuery embeds a single question against that corpus.
type Embedder interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}
