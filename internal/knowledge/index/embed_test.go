// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/knowledge/index"
)

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return dot / math.Sqrt(normA*normB)
}

/*
TestHashEmbedder_SharedTokens keeps texts with common tokens similar, even when
their tokens land in the same bucket.
*/
func TestHashEmbedder_SharedTokens(t *testing.T) {
	embedder := index.NewHashEmbedder(index.DefaultHashDimensions)
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		document string
	}{
		// Both query tokens share a bucket at the default width.
		{"colliding_pair", "quantum chromodynamics", "alice keeps notes about quantum chromodynamics"},
		{"single_token", "giraffe", "The giraffe has a very long neck."},
		{"identical", "sourdough baking", "sourdough baking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := embedder.EmbedQuery(ctx, tt.query)
			require.NoError(t, err)

			documents, err := embedder.EmbedDocuments(ctx, []string{tt.document})
			require.NoError(t, err)

			assert.Greater(t, cosine(query, documents[0]), 0.1)
		})
	}
}

/*
TestHashEmbedder_Deterministic returns unit vectors that repeat across calls.
*/
func TestHashEmbedder_Deterministic(t *testing.T) {
	embedder := index.NewHashEmbedder(64)
	ctx := context.Background()

	first, err := embedder.EmbedQuery(ctx, "okapi stripes")
	require.NoError(t, err)
	second, err := embedder.EmbedQuery(ctx, "okapi stripes")
	require.NoError(t, err)

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, cosine(first, first), 1e-6)

	blank, err := embedder.EmbedQuery(ctx, "   ")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cosine(blank, first), 1e-6)
}
