package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/db"
	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// --- Mocks ---

type memStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.lastTTL = ttl
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	vec        []float32
	err        error
	embedCalls int
	batchCalls int
	batchTexts []string
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.embedCalls++
	return domain.EmbeddingResult{Embedding: e.vec, TotalTokens: 5}, e.err
}

func (e *countingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.batchCalls++
	e.batchTexts = texts
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 5 * len(texts)}, nil
}

func newCached(inner domain.Embedder, s store) *CachedEmbedder {
	return New(inner, "test-model", 768, s, time.Hour, nil, zap.NewNop())
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.25, -1.5}}
	s := newMemStore()
	cached := newCached(inner, s)

	first, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.embedCalls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.embedCalls)
	}
	if first.TotalTokens != 5 {
		t.Errorf("miss must report real token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("expected cache hit, inner called %d times", inner.embedCalls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit must report zero tokens, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != 0.25 || second.Embedding[1] != -1.5 {
		t.Errorf("round-tripped vector mismatch: %v", second.Embedding)
	}
	if s.lastTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %v", s.lastTTL)
	}
}

func TestEmbed_StoreFailureFallsThrough(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	s := newMemStore()
	s.getErr = errors.New("redis down")
	s.setErr = errors.New("redis down")
	cached := newCached(inner, s)

	res, err := cached.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected result: %v", res)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	innerErr := errors.New("provider down")
	cached := newCached(&countingEmbedder{err: innerErr}, newMemStore())

	_, err := cached.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestBatchEmbed_MixedHitsAndMisses(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{9}}
	s := newMemStore()
	cached := newCached(inner, s)

	// Warm "b".
	if _, err := cached.Embed(context.Background(), "b"); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}
	inner.embedCalls = 0

	res, err := cached.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call for misses, got %d", inner.batchCalls)
	}
	if len(inner.batchTexts) != 2 || inner.batchTexts[0] != "a" || inner.batchTexts[1] != "c" {
		t.Errorf("expected only misses embedded, got %v", inner.batchTexts)
	}
	for i, e := range res.Embeddings {
		if len(e) != 1 {
			t.Errorf("embedding %d missing: %v", i, e)
		}
	}
}

func TestBatchEmbed_AllHits(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	s := newMemStore()
	cached := newCached(inner, s)

	for _, text := range []string{"x", "y"} {
		if _, err := cached.Embed(context.Background(), text); err != nil {
			t.Fatalf("warm-up failed: %v", err)
		}
	}
	inner.embedCalls = 0

	res, err := cached.BatchEmbed(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 0 || inner.embedCalls != 0 {
		t.Errorf("expected no inner calls, got embed=%d batch=%d", inner.embedCalls, inner.batchCalls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("all-hit batch must report zero tokens, got %d", res.TotalTokens)
	}
}

func TestCacheKey_ScopedByModel(t *testing.T) {
	s := newMemStore()
	a := New(&countingEmbedder{vec: []float32{1}}, "model-a", 768, s, time.Hour, nil, zap.NewNop())
	b := New(&countingEmbedder{vec: []float32{2}}, "model-b", 768, s, time.Hour, nil, zap.NewNop())

	if a.cacheKey("text") == b.cacheKey("text") {
		t.Error("cache keys must differ across models")
	}
}

func TestCacheKey_ScopedByDimensions(t *testing.T) {
	// A dimensions change produces a different vector space for the
	// same model; stale entries must not be served into it.
	s := newMemStore()
	a := New(&countingEmbedder{vec: []float32{1, 2, 3}}, "model-a", 3, s, time.Hour, nil, zap.NewNop())
	b := New(&countingEmbedder{vec: []float32{1, 2, 3, 4}}, "model-a", 4, s, time.Hour, nil, zap.NewNop())

	if a.cacheKey("text") == b.cacheKey("text") {
		t.Error("cache keys must differ across dimensions")
	}

	if _, err := a.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}
	res, err := b.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 4 {
		t.Errorf("expected fresh 4-dim embedding, got %v", res.Embedding)
	}
}
