package storage

import (
	"context"

	"github.com/poiesic/lexgraph/core"
)

// DocumentRepository provides operations for managing legal documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives a content-based ID so identical
	// content upserts the same record. Sets InsertedAt on first write and
	// refreshes UpdatedAt on every write.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// SearchKeyword finds documents whose content or title contains words of
	// the query, restricted by filters. Matches are scored by query word
	// coverage and ordered by score descending, up to limit results.
	// An empty result is not an error.
	SearchKeyword(ctx context.Context, query string, filters core.Filters, limit int) ([]*core.KeywordMatch, error)

	// FindSimilar finds documents similar to the given vector, restricted by
	// filters. Results are ordered by similarity (highest first), up to limit.
	FindSimilar(ctx context.Context, vector []float32, filters core.Filters, limit int) ([]*core.VectorMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}
