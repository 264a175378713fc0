package domain

import (
	"fmt"
	"strings"
)

// ReadFailure records a single input that could not be read.
// Read failures are non-fatal to the batch.
type ReadFailure struct {
	// Input is the display name of the failed input.
	Input string

	// Err is the underlying read error.
	Err error
}

// DocumentFailure records a document that failed during chunking or
// during the embed/persist stage.
type DocumentFailure struct {
	// Document is the document name.
	Document string

	// Err is the underlying error.
	Err error
}

// ImportResult is the outcome of a batch import whose embed stage
// succeeded. Read and chunk failures are carried for attribution;
// they do not fail the batch on their own.
type ImportResult struct {
	// Documents are the fully processed documents, with store IDs.
	Documents []*Document

	// ReadFailures lists inputs that could not be read.
	ReadFailures []ReadFailure

	// ChunkFailures lists documents that could not be chunked.
	ChunkFailures []DocumentFailure
}

// BatchError reports a failed batch. Any embed-stage failure fails the
// whole batch for the caller, even though documents persisted before
// the failure remain in the store (no rollback).
type BatchError struct {
	// ReadFailures lists inputs that failed during the read stage.
	ReadFailures []ReadFailure

	// ChunkFailures lists documents that failed during the chunk stage.
	ChunkFailures []DocumentFailure

	// DocumentFailures lists documents that failed during embed/persist.
	DocumentFailures []DocumentFailure
}

// Error summarises the failure with per-unit attribution.
func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch import failed: %d embed/persist failure(s)", len(e.DocumentFailures))
	for _, f := range e.DocumentFailures {
		fmt.Fprintf(&b, "; %s: %v", f.Document, f.Err)
	}
	for _, f := range e.ChunkFailures {
		fmt.Fprintf(&b, "; chunk %s: %v", f.Document, f.Err)
	}
	for _, f := range e.ReadFailures {
		fmt.Fprintf(&b, "; read %s: %v", f.Input, f.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying per-document errors so callers can
// match with errors.Is.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.DocumentFailures)+len(e.ChunkFailures)+len(e.ReadFailures))
	for _, f := range e.DocumentFailures {
		errs = append(errs, f.Err)
	}
	for _, f := range e.ChunkFailures {
		errs = append(errs, f.Err)
	}
	for _, f := range e.ReadFailures {
		errs = append(errs, f.Err)
	}
	return errs
}
