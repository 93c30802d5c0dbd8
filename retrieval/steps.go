// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/workflow"
)

// Intermediate keys written by the search branches and read by fuse.
const (
	keyStructuredHits  = "structured_hits"
	keyVectorHits      = "vector_hits"
	keyStructuredError = "structured_error"
	keyVectorError     = "vector_error"
)

// searchStructured queries the keyword store. A backend failure is recorded
// into the state instead of returned so the sibling vector branch keeps
// running; fuse decides whether the run can continue.
func (p *Pipeline) searchStructured(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	matches, err := p.repo.SearchKeyword(ctx, s.Query, s.Filters, s.Limit)
	if err != nil {
		p.logger.Warn("structured search failed", "run", s.RunID, "err", err)
		s.Intermediate[keyStructuredError] = err
		return s, nil
	}

	// Keyword matches carry no relevance ranking: the store's coverage
	// score only orders its own candidate cut, and every surfaced hit
	// scores a flat 1.0 here.
	hits := make([]core.RetrievalRecord, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, core.RetrievalRecord{
			Id:       strconv.FormatUint(uint64(match.Document.Id), 10),
			Title:    match.Document.Title,
			Content:  match.Document.Content,
			RawScore: 1.0,
			Source:   core.SourceStructured,
		})
	}
	s.Intermediate[keyStructuredHits] = hits
	return s, nil
}

// searchVector embeds the query and runs similarity search. Failures are
// recorded like searchStructured's.
func (p *Pipeline) searchVector(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	vector, err := p.provider.Embedder().EmbedText(ctx, s.Query)
	if err != nil {
		p.logger.Warn("query embedding failed", "run", s.RunID, "err", err)
		s.Intermediate[keyVectorError] = err
		return s, nil
	}

	matches, err := p.repo.FindSimilar(ctx, vector, s.Filters, s.Limit)
	if err != nil {
		p.logger.Warn("vector search failed", "run", s.RunID, "err", err)
		s.Intermediate[keyVectorError] = err
		return s, nil
	}

	hits := make([]core.RetrievalRecord, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, core.RetrievalRecord{
			Id:       strconv.FormatUint(uint64(match.Document.Id), 10),
			Title:    match.Document.Title,
			Content:  match.Document.Content,
			RawScore: clampScore(float64(match.Score)),
			Source:   core.SourceVector,
		})
	}
	s.Intermediate[keyVectorHits] = hits
	return s, nil
}

// fuse joins the two search branches. Both sources failing is fatal; one
// failing degrades the run to a partial result with an advisory error.
func (p *Pipeline) fuse(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	structured, structuredOK := s.Intermediate[keyStructuredHits].([]core.RetrievalRecord)
	vector, vectorOK := s.Intermediate[keyVectorHits].([]core.RetrievalRecord)

	if !structuredOK && !vectorOK {
		return s, &core.PipelineError{Info: core.ErrorInfo{
			Kind:       core.ErrorExternalService,
			Message:    fmt.Sprintf("both retrieval sources failed: structured: %v; vector: %v", s.Intermediate[keyStructuredError], s.Intermediate[keyVectorError]),
			SourceStep: "fuse",
		}}
	}
	if !structuredOK {
		s.Warn(core.ErrorInfo{
			Kind:       core.ErrorPartial,
			Message:    fmt.Sprintf("structured search unavailable: %v", s.Intermediate[keyStructuredError]),
			SourceStep: "search_structured",
		})
	}
	if !vectorOK {
		s.Warn(core.ErrorInfo{
			Kind:       core.ErrorPartial,
			Message:    fmt.Sprintf("vector search unavailable: %v", s.Intermediate[keyVectorError]),
			SourceStep: "search_vector",
		})
	}

	s.Results = Fuse(structured, vector, s.Limit)
	return s, nil
}

// rerank reorders the fused list with the cross-encoder when one is
// deployed. Without a reranker the fused order stands untouched. A reranker
// failure is advisory; the fused order is already a valid answer.
func (p *Pipeline) rerank(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	reranker := p.provider.Reranker()
	if !reranker.Available() || len(s.Results) == 0 {
		return s, nil
	}

	docs := make([]ai.RankedDocument, len(s.Results))
	byId := make(map[string]core.RetrievalRecord, len(s.Results))
	for i, rec := range s.Results {
		docs[i] = ai.RankedDocument{Id: rec.Id, Content: rec.Content}
		byId[rec.Id] = rec
	}

	ranked, err := reranker.Rerank(ctx, s.Query, docs, s.Limit)
	if err != nil {
		p.logger.Warn("rerank failed, keeping fused order", "run", s.RunID, "err", err)
		s.Warn(core.ErrorInfo{
			Kind:       core.ErrorExternalService,
			Message:    fmt.Sprintf("reranker unavailable: %v", err),
			SourceStep: "rerank",
		})
		return s, nil
	}

	results := make([]core.RetrievalRecord, 0, len(ranked))
	for _, doc := range ranked {
		rec, ok := byId[doc.Id]
		if !ok {
			continue
		}
		rec.FusedScore = doc.Score
		results = append(results, rec)
	}
	s.Results = results
	return s, nil
}

// finalize stamps 1-based ranks onto the result list.
func (p *Pipeline) finalize(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	for i := range s.Results {
		s.Results[i].Rank = i + 1
	}
	return s, nil
}

// handleError is the terminal failure step shared with the analysis
// pipeline. The fault is already captured on the state; this step only
// reports it.
func (p *Pipeline) handleError(ctx context.Context, s *workflow.State) (*workflow.State, error) {
	if s.Err != nil {
		p.logger.Error("retrieval run failed",
			"run", s.RunID, "kind", s.Err.Kind.String(), "step", s.Err.SourceStep, "msg", s.Err.Message)
	}
	return s, nil
}

// clampScore forces a similarity into [0,1]. Cosine similarity of unit
// vectors can be slightly negative or exceed 1 through float error.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
