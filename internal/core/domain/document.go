package domain

import (
	"fmt"
	"time"
)

// DocumentType tags the source format of an ingested document.
// The set is closed; ParseDocumentType rejects anything else.
type DocumentType string

// Supported document types.
const (
	DocTypePlain         DocumentType = "plain"
	DocTypeMarkdown      DocumentType = "markdown"
	DocTypeCode          DocumentType = "code"
	DocTypeDocumentation DocumentType = "documentation"
)

// ParseDocumentType validates a document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocTypePlain, DocTypeMarkdown, DocTypeCode, DocTypeDocumentation:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, s)
}

// Document represents a unit of ingested content.
// It is created by a Reader, mutated in place by a Chunker (which
// populates Chunks) and by the embed stage (which attaches a vector
// to each chunk). Chunk order is never changed after chunking.
type Document struct {
	// ID is assigned by the store on persist. Empty before persistence.
	ID string

	// Name is the human-readable document name.
	Name string

	// Type is the source format tag.
	Type DocumentType

	// Link is the origin path or URL.
	Link string

	// Text is the full raw content.
	Text string

	// Timestamp is when the document was read.
	Timestamp time.Time

	// Chunks is the ordered chunk sequence. Empty until the chunking
	// stage runs; the order matches source order.
	Chunks []Chunk
}

// Chunk is a contiguous slice of a document's content.
// Start and End are unit offsets into the source (the unit is defined
// by the chunker: words, sentences); consecutive chunks share the
// configured overlap.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// DocName and DocType mirror the parent document for persistence.
	DocName string
	DocType DocumentType

	// DocUUID links a persisted chunk to its parent's store identifier.
	// Empty until the parent document has been persisted.
	DocUUID string

	// Index is the ordinal position within the document.
	Index int

	// Start and End are the unit offsets covered by this chunk
	// (End exclusive). Overlapping spans are expected.
	Start int
	End   int

	// Vector is the embedding. Nil before the embed stage; exactly the
	// embedder's dimensionality afterwards. A partially embedded chunk
	// is never a valid state to persist.
	Vector []float32
}

// Embedded reports whether the chunk carries a vector.
func (c *Chunk) Embedded() bool {
	return len(c.Vector) > 0
}
