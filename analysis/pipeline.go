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


package analysis

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/workflow"
)

// Step names used in the analysis workflow.
const (
	stepSummarize       = "summarize"
	stepAnalyze         = "analyze"
	stepKeyPoints       = "key_points"
	stepLegalIssues     = "legal_issues"
	stepEntities        = "entities"
	stepRecommendations = "recommendations"
	stepRisk            = "risk"
	stepCompile         = "compile"
	stepHandleError     = "handle_error"
)

// Pipeline runs multi-step document analysis: a summary pass, then the
// remaining analytic steps fanned out concurrently, then a compile join.
// Each analytic step gates itself on the requested scope.
type Pipeline struct {
	provider ai.Provider
	engine   *workflow.Engine
	pool     *ants.Pool
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

// WithPool bounds the analytic fan-out with a shared worker pool.
func WithPool(pool *ants.Pool) Option {
	return func(p *Pipeline) {
		p.pool = pool
	}
}

// NewPipeline wires the analysis workflow over the given AI provider.
func NewPipeline(provider ai.Provider, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	p := &Pipeline{
		provider: provider,
		logger:   slog.Default().With("component", "analysis"),
	}
	for _, opt := range opts {
		opt(p)
	}

	engineOpts := []workflow.Option{
		workflow.WithFailureStep(stepHandleError),
		workflow.WithLogger(p.logger),
	}
	if p.pool != nil {
		engineOpts = append(engineOpts, workflow.WithPool(p.pool))
	}

	engine := workflow.NewEngine("analysis", stepSummarize, engineOpts...)
	engine.AddStep(stepSummarize, p.summarize)
	engine.AddStep(stepKeyPoints, p.keyPoints)
	engine.AddStep(stepLegalIssues, p.legalIssues)
	engine.AddStep(stepEntities, p.entities)
	engine.AddStep(stepRecommendations, p.recommendations)
	engine.AddStep(stepRisk, p.risk)
	engine.AddParallel(stepAnalyze,
		stepKeyPoints, stepLegalIssues, stepEntities, stepRecommendations, stepRisk)
	engine.AddStep(stepCompile, p.compile)
	engine.AddStep(stepHandleError, p.handleError)

	engine.AddEdge(stepSummarize, workflow.RouteOnFailure(stepHandleError, stepAnalyze))
	engine.AddEdge(stepAnalyze, workflow.RouteOnFailure(stepHandleError, stepCompile))
	engine.AddEdge(stepCompile, workflow.To(workflow.End))
	engine.AddEdge(stepHandleError, workflow.To(workflow.End))

	p.engine = engine
	return p, nil
}

// Run analyzes a document under the given scope.
//
// An unset field on the result means the scope did not request it, which is
// distinct from requested-but-empty. A non-nil ErrorInfo with a nil error
// means some step degraded (model call failed or response parsed loosely)
// while the rest of the analysis completed.
func (p *Pipeline) Run(ctx context.Context, content string, scope core.Scope) (*core.AnalysisResult, *core.ErrorInfo, error) {
	if err := core.ValidateDocumentContent(content); err != nil {
		return nil, nil, &core.PipelineError{Info: core.ErrorInfo{
			Kind:    core.ErrorValidation,
			Message: err.Error(),
		}}
	}
	if scope == "" {
		scope = core.ScopeFull
	}
	if err := core.ValidateScope(scope); err != nil {
		return nil, nil, &core.PipelineError{Info: core.ErrorInfo{
			Kind:    core.ErrorValidation,
			Message: err.Error(),
		}}
	}

	s := workflow.NewState()
	s.DocumentContent = content
	s.Scope = scope

	p.logger.Info("analysis run started", "run", s.RunID, "scope", string(scope))

	s, err := p.engine.Run(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	if s.Status == workflow.StatusFailed {
		return s.Analysis, nil, &core.PipelineError{Info: *s.Err}
	}

	p.logger.Info("analysis run completed", "run", s.RunID)
	return s.Analysis, s.Err, nil
}
