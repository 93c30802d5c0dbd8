// Package rerank provides an HTTP client for cross-encoder reranking
// services exposing the text-embeddings-inference /rerank protocol.
package rerank
