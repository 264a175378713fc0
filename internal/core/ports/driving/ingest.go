package driving

import (
	"context"

	"github.com/loomworks/corpus-cli/internal/core/domain"
)

// ImportRequest describes one batch import.
type ImportRequest struct {
	// Inputs is the batch of raw inputs.
	Inputs []domain.RawInput

	// Type is the document type applied to every input in the batch.
	Type domain.DocumentType

	// ChunkUnits is the approximate chunk size, in the active
	// chunker's units.
	ChunkUnits int

	// ChunkOverlap is the number of units shared between consecutive
	// chunks. Must be smaller than ChunkUnits.
	ChunkOverlap int
}

// Ingestor runs the four-stage import pipeline.
type Ingestor interface {
	// ImportBatch reads, chunks, embeds and persists a batch of
	// inputs using the currently selected strategies. Read and chunk
	// failures are recorded in the result without failing the batch;
	// any embed/persist failure fails the batch with a
	// *domain.BatchError.
	ImportBatch(ctx context.Context, req ImportRequest) (*domain.ImportResult, error)
}
