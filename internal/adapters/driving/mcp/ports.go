package mcp

import (
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point.
type Ports struct {
	// Catalog provides read access to stored documents.
	Catalog driving.Catalog

	// Ingestor runs imports. Optional; without it the import tool is
	// not registered.
	Ingestor driving.Ingestor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalog
	}
	return nil
}
