package mock

import (
	"context"

	"github.com/poiesic/lexgraph/ai"
)

// MockReranker is a test double for ai.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// AvailableVal is returned by Available.
	AvailableVal bool

	// RerankFunc is called by Rerank if set.
	// If nil, returns the input documents truncated to topK in their
	// original order.
	RerankFunc func(ctx context.Context, query string, docs []ai.RankedDocument, topK int) ([]ai.RankedDocument, error)

	callCount int
}

// NewMockReranker creates a mock reranker that reports itself available.
func NewMockReranker() *MockReranker {
	return &MockReranker{AvailableVal: true}
}

// Available reports the configured availability.
func (m *MockReranker) Available() bool {
	return m.AvailableVal
}

// Rerank returns the input documents unchanged (truncated to topK) or
// delegates to RerankFunc.
func (m *MockReranker) Rerank(ctx context.Context, query string, docs []ai.RankedDocument, topK int) ([]ai.RankedDocument, error) {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, docs, topK)
	}

	out := make([]ai.RankedDocument, len(docs))
	copy(out, docs)
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockReranker) Reset() {
	m.callCount = 0
	m.RerankFunc = nil
	m.AvailableVal = true
}
