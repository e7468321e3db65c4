// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/dossier/internal/knowledge/index"
	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/metrics"
)

// # Service Layer

// Service runs queries scoped to the acting principal.
type Service struct {
	searcher Searcher
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService constructs a new [Service].
func NewService(searcher Searcher, recorder *metrics.Metrics) *Service {
	return &Service{searcher: searcher, metrics: recorder, now: time.Now}
}

/*
Ask searches ownerID's documents and synthesizes an answer.

Description: Only ownerID's index is consulted. The top results are passed
to the synthesizer as bounded context. When synthesis fails the sources are
still returned and Degraded is set.

Parameters:
  - context: context.Context
  - ownerID: int64 (Acting principal)
  - input: Input (TopK already validated; zero means the default)

Returns:
  - *Result: Answer, sources and elapsed seconds
  - error: index.ErrIndexUnavailable or search failures
*/
func (service *Service) Ask(context context.Context, ownerID int64, input Input) (*Result, error) {
	started := service.now()
	logger := ctxutil.GetLogger(context)

	topK := input.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := service.searcher.Search(context, ownerID, input.Query, topK)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("query_service_search_failed: %w", err)
	}

	result := &Result{Query: input.Query, Sources: hits}

	if len(hits) == 0 {
		result.Answer = EmptyAnswer
		service.finish(result, started, metrics.QueryEmpty)
		return result, nil
	}

	answer, err := service.searcher.Answer(context, ownerID, input.Query, hits[:min(contextHits, len(hits))])
	if err != nil {
		logger.WarnContext(context, "query_synthesis_degraded",
			slog.Int64("principal_id", ownerID),
			slog.Any("error", err),
		)
		result.Answer = DegradedAnswer
		result.Degraded = true
		service.finish(result, started, metrics.QueryDegraded)
		return result, nil
	}

	result.Answer = answer
	service.finish(result, started, metrics.QueryAnswered)

	logger.InfoContext(context, "query_answered",
		slog.Int64("principal_id", ownerID),
		slog.Int("sources", len(hits)),
		slog.Float64("elapsed_seconds", result.ProcessingTime),
	)
	return result, nil
}

func (service *Service) finish(result *Result, started time.Time, outcome string) {
	if result.Sources == nil {
		result.Sources = []index.Hit{}
	}
	result.ProcessingTime = service.now().Sub(started).Seconds()
	service.metrics.QueryServed(outcome)
}
