package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

type batchEmbedderMock struct {
	err   error
	dims  int
	calls int
	texts []string
	short bool // return one embedding fewer than requested
}

func (m *batchEmbedderMock) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	m.texts = texts
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, m.dims)
		out[i][0] = 1
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 7 * len(texts)}, nil
}

func newBuilder(t *testing.T, embed Embedder) *Builder {
	t.Helper()
	splitter, err := NewSplitter(50, 10)
	if err != nil {
		t.Fatalf("NewSplitter failed: %v", err)
	}
	return NewBuilder(splitter, embed, zap.NewNop())
}

func TestBuild(t *testing.T) {
	embed := &batchEmbedderMock{dims: 4}
	builder := newBuilder(t, embed)

	transcript := domain.Transcript{
		VideoID: "Gfr50f6ZBvo",
		Text:    strings.Repeat("words about the video content here ", 10),
	}

	idx, err := builder.Build(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if idx.Len() < 2 {
		t.Errorf("expected multiple chunks, got %d", idx.Len())
	}
	if embed.calls != 1 {
		t.Errorf("expected one batch embed call, got %d", embed.calls)
	}
	if len(embed.texts) != idx.Len() {
		t.Errorf("embedded %d texts for %d chunks", len(embed.texts), idx.Len())
	}
}

func TestBuild_EmptyTranscript(t *testing.T) {
	builder := newBuilder(t, &batchEmbedderMock{dims: 4})

	_, err := builder.Build(context.Background(), domain.Transcript{VideoID: "Gfr50f6ZBvo"})
	if !errors.Is(err, domain.ErrIndexBuild) {
		t.Errorf("expected ErrIndexBuild, got %v", err)
	}
}

func TestBuild_EmbedFailureReturnsNoIndex(t *testing.T) {
	embedErr := errors.New("provider down")
	builder := newBuilder(t, &batchEmbedderMock{err: embedErr})

	idx, err := builder.Build(context.Background(), domain.Transcript{
		VideoID: "Gfr50f6ZBvo",
		Text:    "some transcript text",
	})
	if !errors.Is(err, embedErr) {
		t.Errorf("expected embed error, got %v", err)
	}
	if idx != nil {
		t.Error("failed build must not return a partial index")
	}
}

func TestBuild_CountMismatchFails(t *testing.T) {
	builder := newBuilder(t, &batchEmbedderMock{dims: 4, short: true})

	_, err := builder.Build(context.Background(), domain.Transcript{
		VideoID: "Gfr50f6ZBvo",
		Text:    strings.Repeat("words about the video content here ", 10),
	})
	if !errors.Is(err, domain.ErrIndexBuild) {
		t.Errorf("expected ErrIndexBuild, got %v", err)
	}
}
