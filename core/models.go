package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored legal documents.
// It is generated using content-based hashing so that identical
// documents produce identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a legal document held in the structured store.
// The Vector field is populated at ingest time and used for semantic search.
type Document struct {
	Id         ID
	Title      string
	Content    string
	DocType    string // e.g. "contract", "ruling", "statute"
	Category   string // e.g. "employment", "real estate"
	Source     string
	Vector     []float32
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Filters narrows a structured search to specific document types and categories.
// An empty slice means the dimension is unconstrained.
type Filters struct {
	DocTypes   []string
	Categories []string
}

// Match reports whether the document passes both filter dimensions.
func (f Filters) Match(d *Document) bool {
	return matchesAny(d.DocType, f.DocTypes) && matchesAny(d.Category, f.Categories)
}

func matchesAny(value string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// KeywordMatch pairs a stored document with its keyword coverage score.
// Score is the fraction of query words found in the document, in (0,1].
type KeywordMatch struct {
	Document *Document
	Score    float64
}

// VectorMatch pairs a stored document with its cosine similarity to a
// query vector. Similarity assumes unit-length vectors.
type VectorMatch struct {
	Document *Document
	Score    float32
}

// SourceType identifies which search source produced a retrieval record.
type SourceType int

const (
	// SourceStructured marks a hit from the keyword/metadata store.
	SourceStructured SourceType = iota + 1
	// SourceVector marks a hit from the semantic vector search.
	SourceVector
	// SourceHybrid marks a hit present in both sources after fusion.
	SourceHybrid
)

// String returns a human-readable source name.
func (s SourceType) String() string {
	switch s {
	case SourceStructured:
		return "structured"
	case SourceVector:
		return "vector"
	case SourceHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// RetrievalRecord is one ranked document produced by the retrieval pipeline.
// Records are created by the search steps, scored during fusion and reranking,
// and annotated with a rank at finalization. They are immutable afterwards.
type RetrievalRecord struct {
	Id         string
	Title      string
	Content    string
	RawScore   float64 // source-reported score in [0,1]
	FusedScore float64 // set by the fuse step, may be replaced by the reranker
	Source     SourceType
	Rank       int // 1-based, assigned at finalize; 0 until then
}

// RiskLevel classifies the overall legal risk of an analyzed document.
type RiskLevel int

const (
	// RiskUnset means risk assessment was not requested.
	RiskUnset RiskLevel = iota
	// RiskUnknown means assessment ran but produced no recognizable label.
	RiskUnknown
	RiskLow
	RiskMedium
	RiskHigh
)

// String returns a human-readable risk label.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskUnknown:
		return "unknown"
	default:
		return "unset"
	}
}

// Scope selects which analytic fields an analysis run should produce.
type Scope string

const (
	ScopeSummary         Scope = "summary"
	ScopeKeyPoints       Scope = "key_points"
	ScopeLegalIssues     Scope = "legal_issues"
	ScopeEntities        Scope = "entities"
	ScopeRecommendations Scope = "recommendations"
	ScopeRisk            Scope = "risk"
	ScopeFull            Scope = "full"
)

// Includes reports whether the scope implies the given analytic field.
func (s Scope) Includes(field Scope) bool {
	return s == ScopeFull || s == field
}

// Valid reports whether the scope is one of the recognized values.
func (s Scope) Valid() bool {
	switch s {
	case ScopeSummary, ScopeKeyPoints, ScopeLegalIssues, ScopeEntities,
		ScopeRecommendations, ScopeRisk, ScopeFull:
		return true
	}
	return false
}

// AnalysisResult holds the compiled output of an analysis run.
// A nil/zero field means that field was not requested by the scope,
// which is distinct from requested-but-empty.
type AnalysisResult struct {
	Summary         string
	KeyPoints       []string
	LegalIssues     []string
	Entities        map[string][]string
	Recommendations []string
	Risk            RiskLevel
	GeneratedAt     time.Time
}
