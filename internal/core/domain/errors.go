package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Store adapters return it from class creation; the schema
	// coordinator treats it as success.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStrategy indicates a select by unrecognised name.
	// The current selection is left unchanged.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrNoStrategySelected indicates a registry was asked for its
	// active strategy before anything was selected.
	ErrNoStrategySelected = errors.New("no strategy selected")

	// ErrEmbeddingBackend indicates the external embedding API failed
	// after bounded retries.
	ErrEmbeddingBackend = errors.New("embedding backend failure")

	// ErrSchemaConflict indicates the existing class layout does not
	// match the requested one. Fatal for that vectorizer only.
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrStoreConnection indicates the document store could not be
	// reached at startup. Fatal to the process.
	ErrStoreConnection = errors.New("store connection failure")
)
