// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrEmptyQuery indicates a retrieval run was requested without a query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyDocumentContent indicates an analysis run was requested without content.
	ErrEmptyDocumentContent = errors.New("document content cannot be empty")

	// ErrInvalidScope indicates an unrecognized analysis scope value.
	ErrInvalidScope = errors.New("invalid analysis scope")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyTitle indicates the document Title field is empty.
	ErrEmptyTitle = errors.New("document title cannot be empty")

	// ErrEmptyContent indicates the document Content field is empty.
	ErrEmptyContent = errors.New("document content cannot be empty")
)

// ErrorKind classifies a pipeline fault.
type ErrorKind int

const (
	// ErrorValidation marks malformed or empty required input.
	// Always fatal and rejected before any step runs.
	ErrorValidation ErrorKind = iota + 1

	// ErrorExternalService marks a failed provider call (search backend,
	// embedding service, reranker, or language model).
	ErrorExternalService

	// ErrorParse marks a language-model response that did not match the
	// expected structured shape. Recovered locally, never fatal.
	ErrorParse

	// ErrorPartial marks the failure of one of two redundant retrieval
	// sources while the other succeeded. Advisory, the run continues.
	ErrorPartial
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorValidation:
		return "validation"
	case ErrorExternalService:
		return "external_service"
	case ErrorParse:
		return "parse"
	case ErrorPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// ErrorInfo describes a fault captured during a pipeline run.
// It is carried on the pipeline state and returned to the caller so a
// degraded-mode result can still warn about partial completion.
type ErrorInfo struct {
	Kind       ErrorKind
	Message    string
	SourceStep string
}

// PipelineError wraps an ErrorInfo as a Go error for fatal pipeline outcomes.
type PipelineError struct {
	Info ErrorInfo
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Info.SourceStep != "" {
		return fmt.Sprintf("%s error in step %q: %s", e.Info.Kind, e.Info.SourceStep, e.Info.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Info.Kind, e.Info.Message)
}
