package query

import (
	"context"

	"github.com/vidqa-cloud/vidqa/internal/domain"
	"github.com/vidqa-cloud/vidqa/internal/usecase/index"
)

// Embedder vectorizes the question for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever finds the chunks most similar to a query vector.
// Implemented by index.VectorIndex.
type Retriever interface {
	Search(query []float32, k int) []index.Scored
	Len() int
}
