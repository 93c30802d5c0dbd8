// Package openai implements the ai service contracts against any
// OpenAI-compatible API (OpenAI, Ollama's /v1 endpoint, vLLM, LocalAI).
package openai
