package index

import (
	"context"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// Embedder vectorizes chunk texts in batch.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
