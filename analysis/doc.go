// Package analysis implements multi-step legal document analysis.
//
// A run summarizes the document, fans out the remaining analytic steps
// (key points, legal issues, entities, recommendations, risk) over a
// bounded worker pool, and compiles whatever they produced into one
// result. The requested scope gates each step; model responses are parsed
// with forgiving heuristics and a step that cannot reach the model leaves
// its field unset instead of failing the run.
package analysis
