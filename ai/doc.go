// Package ai defines the contracts for the external AI capabilities the
// pipelines consume: text embedding, chat completion, and reranking.
// Concrete implementations live in the openai, ollama, and rerank
// subpackages; mock provides test doubles.
package ai
