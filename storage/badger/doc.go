// Package badger implements storage.DocumentRepository on BadgerDB.
//
// Documents are stored as single key-value records under a common prefix.
// Keyword and similarity searches scan the prefix; at the collection sizes
// this store targets, a full scan inside one read transaction is cheaper
// than maintaining secondary indices.
package badger
