// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/knowledge/index"
)

/*
TestNormalize cleans bytes that are not well-formed text.
*/
func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", index.Normalize([]byte("  hello\t\n\x00world  ")))
	assert.Equal(t, "fi 1", index.Normalize([]byte("ﬁ ①")))
	assert.True(t, utf8.ValidString(index.Normalize([]byte{'a', 0xff, 0xfe, 'b'})))
	assert.Empty(t, index.Normalize(nil))
}

/*
TestChunk covers short input, overlap and space-aligned breaks.
*/
func TestChunk(t *testing.T) {
	assert.Nil(t, index.Chunk(""))
	assert.Equal(t, []string{"short text"}, index.Chunk("short text"))

	long := strings.TrimSpace(strings.Repeat("lorem ipsum dolor ", 200))
	chunks := index.Chunk(long)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 800)
		assert.False(t, strings.HasPrefix(chunk, " "))
	}

	// First and last chunks anchor the input.
	assert.True(t, strings.HasPrefix(long, chunks[0]))
	assert.True(t, strings.HasSuffix(long, chunks[len(chunks)-1]))
}

/*
TestTokenize folds case and splits on punctuation.
*/
func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, index.Tokenize("Hello, WORLD 42!"))
	assert.Empty(t, index.Tokenize("--- !!!"))
}

/*
TestHashEmbedder checks determinism, unit length and lexical similarity.
*/
func TestHashEmbedder(t *testing.T) {
	embedder := index.NewHashEmbedder(256)
	ctx := context.Background()

	vectors, err := embedder.EmbedDocuments(ctx, []string{"red apple pie", "Red apple PIE", "blue whale song", ""})
	require.NoError(t, err)
	require.Len(t, vectors, 4)

	for _, vector := range vectors {
		assert.Len(t, vector, 256)
		assert.InDelta(t, 1.0, norm(vector), 1e-5)
	}

	assert.Equal(t, vectors[0], vectors[1])
	assert.Greater(t, dot(vectors[0], vectors[1]), dot(vectors[0], vectors[2]))
	assert.InDelta(t, 0.0, dot(vectors[0], vectors[3]), 1e-6)

	query, err := embedder.EmbedQuery(ctx, "red apple pie")
	require.NoError(t, err)
	assert.Equal(t, vectors[0], query)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
