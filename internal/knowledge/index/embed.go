// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// # Embedders

// Embedder is the langchaingo embedding contract. Both the remote client and
// [HashEmbedder] satisfy it.
type Embedder = embeddings.Embedder

// RemoteOptions configures an OpenAI-compatible embedding endpoint.
type RemoteOptions struct {
	BaseURL string
	Model   string
	APIKey  string
}

/*
NewRemoteEmbedder builds a langchaingo embedder for an OpenAI-compatible API.

Description: Text Embeddings Inference and similar servers speak the same
protocol and ignore the token, so a placeholder is sent when none is set.

Returns:
  - Embedder: Ready-to-use client
  - error: Invalid options
*/
func NewRemoteEmbedder(options RemoteOptions) (Embedder, error) {
	if options.BaseURL == "" || options.Model == "" {
		return nil, fmt.Errorf("index: embedding base url and model are required")
	}

	token := options.APIKey
	if token == "" {
		token = "placeholder"
	}

	client, err := openai.New(
		openai.WithBaseURL(options.BaseURL),
		openai.WithEmbeddingModel(options.Model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("index_embedder_client_failed: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("index_embedder_init_failed: %w", err)
	}
	return embedder, nil
}

// HashEmbedder maps text to a fixed-size vector by feature hashing its tokens.
//
// It needs no model or network, is deterministic, and gives lexical-overlap
// similarity. It backs development setups without an embedding endpoint and
// the test suites.
type HashEmbedder struct {
	dimensions int
}

// DefaultHashDimensions matches common small sentence-embedding models.
const DefaultHashDimensions = 384

// NewHashEmbedder creates a HashEmbedder with the given dimensionality.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions < 2 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// EmbedDocuments embeds each text.
func (embedder *HashEmbedder) EmbedDocuments(context context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := context.Err(); err != nil {
			return nil, err
		}
		vectors[i] = embedder.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query.
func (embedder *HashEmbedder) EmbedQuery(context context.Context, text string) ([]float32, error) {
	if err := context.Err(); err != nil {
		return nil, err
	}
	return embedder.embed(text), nil
}

// embed reserves dimension 0 for text without tokens, so that such text is
// a valid unit vector orthogonal to every real one.
func (embedder *HashEmbedder) embed(text string) []float32 {
	vector := make([]float32, embedder.dimensions)
	buckets := uint32(embedder.dimensions - 1)

	for _, token := range Tokenize(text) {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(token))
		// Counts only grow, so two tokens sharing a bucket never cancel out.
		vector[1+hasher.Sum32()%buckets]++
	}

	var norm float64
	for _, value := range vector {
		norm += float64(value) * float64(value)
	}
	if norm == 0 {
		vector[0] = 1
		return vector
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}

// embeddingFunc adapts an [Embedder] to chromem's query-time contract.
func embeddingFunc(embedder Embedder) chromem.EmbeddingFunc {
	return func(context context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(context, text)
	}
}
