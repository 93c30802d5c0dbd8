// Package ollama implements the ai service contracts against the native
// Ollama API, selected via the ai.Config Backend value.
package ollama
