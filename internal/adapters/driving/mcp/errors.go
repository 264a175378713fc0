// Package mcp provides an MCP (Model Context Protocol) server adapter
// for the Corpus CLI. It lets AI assistants browse the document store
// and push new content through the import pipeline.
package mcp

import "errors"

// ErrMissingCatalog is returned when the catalog port is not provided.
var ErrMissingCatalog = errors.New("mcp: catalog is required")
