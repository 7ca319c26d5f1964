// Package index builds and searches the in-memory vector index over
// one video's transcript chunks. The index is immutable once built and
// replaced wholesale when the session switches videos.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// Scored is one retrieval hit: a chunk with its cosine similarity to
// the query.
type Scored struct {
	Chunk domain.Chunk
	Score float64
}

// VectorIndex holds the chunks of one transcript and their embedding
// vectors, aligned by position.
type VectorIndex struct {
	chunks  []domain.Chunk
	vectors [][]float32
	norms   []float64
	dims    int
}

// NewVectorIndex creates an index over aligned chunks and vectors.
func NewVectorIndex(chunks []domain.Chunk, vectors [][]float32) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("empty index: %w", domain.ErrIndexBuild)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf(
			"chunk/vector count mismatch: %d != %d: %w",
			len(chunks), len(vectors), domain.ErrIndexBuild,
		)
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("empty embedding vector: %w", domain.ErrIndexBuild)
	}
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf(
				"vector %d has %d dims, expected %d: %w",
				i, len(v), dims, domain.ErrIndexBuild,
			)
		}
		norms[i] = norm(v)
	}

	return &VectorIndex{chunks: chunks, vectors: vectors, norms: norms, dims: dims}, nil
}

// Len returns the number of indexed chunks.
func (idx *VectorIndex) Len() int {
	return len(idx.chunks)
}

// Search returns the k chunks most similar to the query vector, by
// cosine similarity, highest first. Ties keep document order. k is
// capped at the index size. A query whose dimensions differ from the
// indexed vectors has no meaningful similarity and returns no hits.
func (idx *VectorIndex) Search(query []float32, k int) []Scored {
	if k <= 0 || len(query) != idx.dims {
		return nil
	}
	if k > len(idx.chunks) {
		k = len(idx.chunks)
	}

	qNorm := norm(query)
	scored := make([]Scored, len(idx.chunks))
	for i := range idx.chunks {
		scored[i] = Scored{Chunk: idx.chunks[i], Score: cosine(query, qNorm, idx.vectors[i], idx.norms[i])}
	}

	// Stable sort keeps ordinal order for equal scores, so results are
	// deterministic for a given index and query.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	return scored[:k]
}

func cosine(q []float32, qNorm float64, v []float32, vNorm float64) float64 {
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	return dot / (qNorm * vNorm)
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
