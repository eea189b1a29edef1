// Package local provides offline stand-ins for the embedding and
// generation capabilities, used when no API credentials are configured
// and by tests.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"

	"github.com/pgvector/pgvector-go"
)

// Embedder produces deterministic pseudo-embeddings by seeding a PRNG
// from the text's digest. The same text always maps to the same vector.
type Embedder struct {
	dimension int
}

func NewEmbedder(dimension int) *Embedder {
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Embed(_ context.Context, texts []string) ([]pgvector.Vector, error) {
	vectors := make([]pgvector.Vector, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *Embedder) embedOne(text string) pgvector.Vector {
	values := make([]float32, e.dimension)
	if len(text) == 0 {
		return pgvector.NewVector(values)
	}

	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))
	for i := range values {
		values[i] = float32(rng.Float64()*2 - 1)
	}
	return pgvector.NewVector(values)
}
