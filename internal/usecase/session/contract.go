package session

import (
	"context"

	"github.com/vidqa-cloud/vidqa/internal/domain"
	"github.com/vidqa-cloud/vidqa/internal/usecase/index"
)

// TranscriptFetcher fetches the best available transcript for a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID domain.VideoID) (domain.Transcript, error)
}

// IndexBuilder turns a transcript into a searchable vector index.
type IndexBuilder interface {
	Build(ctx context.Context, t domain.Transcript) (*index.VectorIndex, error)
}

// Engine answers questions over one built index.
type Engine interface {
	Ask(ctx context.Context, question string) domain.QueryResult
	Batch(ctx context.Context, questions []string) []domain.QueryResult
	UpdateK(k int) error
	K() int
}

// EngineFactory creates a query engine for a freshly built index.
type EngineFactory func(idx *index.VectorIndex) Engine
