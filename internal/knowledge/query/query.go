// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package query answers questions against the caller's own documents.

A query searches the caller's tenant index, hands the top results to the
answer synthesizer and returns the answer with its ranked sources. An empty
index is a normal outcome with a fixed message. A synthesis failure degrades
to sources without an answer.
*/
package query

import (
	"context"

	"github.com/taibuivan/dossier/internal/knowledge/index"
)

// Searcher is the slice of [index.Manager] the query flow needs.
type Searcher interface {
	Search(ctx context.Context, ownerID int64, query string, topK int) ([]index.Hit, error)
	Answer(ctx context.Context, ownerID int64, query string, hits []index.Hit) (string, error)
}

// # Input Constraints

const (
	DefaultTopK    = 5
	MaxTopK        = 20
	QueryMaxLength = 2000

	// contextHits is how many of the top results feed the synthesizer.
	contextHits = 2

	FieldQuery = "query"
	FieldTopK  = "top_k"
)

// Fixed answers for outcomes that involve no synthesis.
const (
	EmptyAnswer    = "No relevant information was found in your documents. Please upload some documents first."
	DegradedAnswer = "An answer could not be generated right now. The most relevant passages are listed in sources."
)

// # Domain Entities

// Input is one question from the caller.
type Input struct {
	Query string
	TopK  int
}

// Result is the answer and the evidence it was built from.
type Result struct {
	Query          string      `json:"query"`
	Answer         string      `json:"answer"`
	Sources        []index.Hit `json:"sources"`
	ProcessingTime float64     `json:"processing_time"`
	Degraded       bool        `json:"degraded"`
}
