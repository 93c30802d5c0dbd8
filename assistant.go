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


package lexgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexgraph/ai"
	"github.com/poiesic/lexgraph/ai/ollama"
	"github.com/poiesic/lexgraph/ai/openai"
	"github.com/poiesic/lexgraph/analysis"
	"github.com/poiesic/lexgraph/core"
	"github.com/poiesic/lexgraph/retrieval"
	"github.com/poiesic/lexgraph/storage"
	"github.com/poiesic/lexgraph/storage/badger"
)

const defaultPoolSize = 8

// Assistant bundles the document store, the AI provider, and the two
// pipelines behind one handle. Construct it once at process start and share
// it; every method is safe for concurrent use.
type Assistant struct {
	backend   *badger.Backend
	repo      storage.DocumentRepository
	provider  ai.Provider
	retrieval *retrieval.Pipeline
	analysis  *analysis.Pipeline
	pool      *ants.Pool
	logger    *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
	poolSize int
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing config-based
// construction. Used by tests to run against mocks.
func WithProvider(provider ai.Provider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithInMemory stores documents in memory instead of on disk.
func WithInMemory() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// WithPoolSize bounds the analysis fan-out worker pool.
func WithPoolSize(n int) AssistantOption {
	return func(o *assistantOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// NewAssistant opens the document store at filePath and wires both
// pipelines over it.
func NewAssistant(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
		poolSize: defaultPoolSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repo := badger.NewDocumentRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = newProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	pool, err := ants.NewPool(options.poolSize)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	retrievalPipeline, err := retrieval.NewPipeline(repo, provider)
	if err != nil {
		pool.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	analysisPipeline, err := analysis.NewPipeline(provider, analysis.WithPool(pool))
	if err != nil {
		pool.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:   backend,
		repo:      repo,
		provider:  provider,
		retrieval: retrievalPipeline,
		analysis:  analysisPipeline,
		pool:      pool,
		logger:    slog.Default(),
	}, nil
}

// newProvider selects the provider implementation by configuration value.
func newProvider(config *ai.Config) (ai.Provider, error) {
	switch config.Backend {
	case ai.BackendOllama:
		return ollama.NewProvider(config)
	default:
		return openai.NewProvider(config)
	}
}

// Close releases the provider, the worker pool, and the document store.
func (a *Assistant) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	a.pool.Release()

	if err := a.repo.Close(); err != nil {
		a.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the underlying document store.
func (a *Assistant) DocumentRepository() storage.DocumentRepository {
	return a.repo
}

// Ingest stores documents, embedding their content first so they are
// immediately reachable by vector search.
func (a *Assistant) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := a.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	for i := range docs {
		if i < len(vectors) {
			docs[i].Vector = vectors[i]
		}
	}

	return a.repo.AddDocuments(ctx, docs...)
}

// Retrieve runs a hybrid retrieval query.
// See retrieval.Pipeline.Run for the advisory/error contract.
func (a *Assistant) Retrieve(ctx context.Context, query string, filters core.Filters, limit int) ([]core.RetrievalRecord, *core.ErrorInfo, error) {
	return a.retrieval.Run(ctx, query, filters, limit)
}

// Analyze runs multi-step analysis on the given document content.
// See analysis.Pipeline.Run for the advisory/error contract.
func (a *Assistant) Analyze(ctx context.Context, content string, scope core.Scope) (*core.AnalysisResult, *core.ErrorInfo, error) {
	return a.analysis.Run(ctx, content, scope)
}

// AskResult is the combined outcome of an Ask call.
type AskResult struct {
	// Results are the retrieval hits, best first.
	Results []core.RetrievalRecord

	// Analysis covers the top retrieved document. Nil when retrieval
	// found nothing.
	Analysis *core.AnalysisResult
}

// Ask retrieves documents for the query and analyzes the best hit.
// No hits is not an error: the result carries empty Results and no
// Analysis. Advisory errors from either stage are returned with the
// retrieval stage's taking precedence.
func (a *Assistant) Ask(ctx context.Context, query string, filters core.Filters, limit int, scope core.Scope) (*AskResult, *core.ErrorInfo, error) {
	results, advisory, err := a.retrieval.Run(ctx, query, filters, limit)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		a.logger.Info("ask found no documents", "query_len", len(query))
		return &AskResult{Results: results}, advisory, nil
	}

	analysisResult, analysisAdvisory, err := a.analysis.Run(ctx, results[0].Content, scope)
	if err != nil {
		return &AskResult{Results: results}, advisory, err
	}
	if advisory == nil {
		advisory = analysisAdvisory
	}

	return &AskResult{Results: results, Analysis: analysisResult}, advisory, nil
}
