package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
	"github.com/vidqa-cloud/vidqa/internal/metrics"
)

// Builder turns a transcript into a searchable vector index.
type Builder struct {
	splitter *Splitter
	embed    Embedder
	logger   *zap.Logger
}

// NewBuilder creates an index builder.
func NewBuilder(splitter *Splitter, embed Embedder, logger *zap.Logger) *Builder {
	return &Builder{splitter: splitter, embed: embed, logger: logger}
}

// Build splits the transcript, embeds every chunk, and returns the
// index. On any failure no index is returned, so a failed build never
// leaves a partially searchable state behind.
func (b *Builder) Build(ctx context.Context, t domain.Transcript) (*VectorIndex, error) {
	chunks := b.splitter.Split(t.Text)
	if len(chunks) == 0 {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("transcript produced no chunks: %w", domain.ErrIndexBuild)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	res, err := b.embed.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	idx, err := NewVectorIndex(chunks, res.Embeddings)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.IndexBuildsTotal.WithLabelValues("ok").Inc()
	metrics.IndexChunks.Set(float64(idx.Len()))

	b.logger.Info("built vector index",
		zap.String("video_id", t.VideoID.String()),
		zap.Int("chunks", idx.Len()),
		zap.Int("transcript_chars", len(t.Text)),
		zap.Int("embedding_tokens", res.TotalTokens),
	)

	return idx, nil
}
