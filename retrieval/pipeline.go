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
	"log/slog"

	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/storage"
	"github.com/poiesic/lexgraph/workflow"
)

// Step names used in the retrieval workflow.
const (
	stepSearch           = "search"
	stepSearchStructured = "search_structured"
	stepSearchVector     = "search_vector"
	stepFuse             = "fuse"
	stepRerank           = "rerank"
	stepFinalize         = "finalize"
	stepHandleError      = "handle_error"
)

// Pipeline runs hybrid retrieval: keyword and vector search fan out
// concurrently, their hits are fused into one ranked list, optionally
// reordered by a cross-encoder, and stamped with final ranks.
type Pipeline struct {
	repo     storage.DocumentRepository
	provider ai.Provider
	engine   *workflow.Engine
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPipeline wires the retrieval workflow over the given repository and
// AI provider.
func NewPipeline(repo storage.DocumentRepository, provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	p := &Pipeline{
		repo:     repo,
		provider: provider,
		logger:   slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(p)
	}

	engine := workflow.NewEngine("retrieval", stepSearch,
		workflow.WithFailureStep(stepHandleError),
		workflow.WithLogger(p.logger),
	)
	engine.AddStep(stepSearchStructured, p.searchStructured)
	engine.AddStep(stepSearchVector, p.searchVector)
	engine.AddParallel(stepSearch, stepSearchStructured, stepSearchVector)
	engine.AddStep(stepFuse, p.fuse)
	engine.AddStep(stepRerank, p.rerank)
	engine.AddStep(stepFinalize, p.finalize)
	engine.AddStep(stepHandleError, p.handleError)

	engine.AddEdge(stepSearch, workflow.RouteOnFailure(stepHandleError, stepFuse))
	engine.AddEdge(stepFuse, workflow.RouteOnFailure(stepHandleError, stepRerank))
	engine.AddEdge(stepRerank, workflow.RouteOnFailure(stepHandleError, stepFinalize))
	engine.AddEdge(stepFinalize, workflow.To(workflow.End))
	engine.AddEdge(stepHandleError, workflow.To(workflow.End))

	p.engine = engine
	return p, nil
}

// Run executes a retrieval query.
//
// The returned records are ranked best-first. A non-nil ErrorInfo with a nil
// error means the run completed in degraded mode (one search source down or
// the reranker unreachable). A non-nil error means the run failed; any
// records accumulated before the fault are still returned.
func (p *Pipeline) Run(ctx context.Context, query string, filters core.Filters, limit int) ([]core.RetrievalRecord, *core.ErrorInfo, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, nil, &core.PipelineError{Info: core.ErrorInfo{
			Kind:    core.ErrorValidation,
			Message: err.Error(),
		}}
	}

	s := workflow.NewState()
	s.Query = query
	s.Filters = filters
	s.Limit = core.NormalizeLimit(limit)

	p.logger.Info("retrieval run started", "run", s.RunID, "limit", s.Limit)

	s, err := p.engine.Run(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	if s.Status == workflow.StatusFailed {
		return s.Results, nil, &core.PipelineError{Info: *s.Err}
	}

	p.logger.Info("retrieval run completed", "run", s.RunID, "results", len(s.Results))
	return s.Results, s.Err, nil
}
