// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Reader: Converts raw inputs into documents
//   - Chunker: Splits document content into chunks
//   - Embedder: Computes vector embeddings for chunks
//   - StoreClient: The external document store (remote or embedded)
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, reader, or chunker package
package driven
