// Package domain defines the core business entities for Corpus.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawInput: Opaque source material (bytes, path, or inline text)
//   - Document: An ingested document with its ordered chunks
//   - Chunk: A contiguous span of a document, the unit of embedding
//   - Capabilities: The immutable startup snapshot of optional features
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
