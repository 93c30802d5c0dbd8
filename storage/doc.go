// Package storage defines the persistence contracts for legal documents.
//
// The DocumentRepository interface covers the two search paths the retrieval
// pipeline fans out over: keyword search over document text and metadata
// filters, and similarity search over stored embedding vectors. Concrete
// implementations live in subpackages (storage/badger).
package storage
