package driven

import "context"

// Property is a scalar property in a class schema.
type Property struct {
	// Name is the property name (e.g. "doc_name").
	Name string

	// DataType is the store data type (e.g. "text", "date").
	DataType string

	// Description documents the property for the store's schema API.
	Description string
}

// ClassSchema describes a storage class: document metadata properties
// plus one vector field sized to the owning embedder.
type ClassSchema struct {
	// Class is the deterministic class name.
	Class string

	// Description documents the class.
	Description string

	// Vectorizer is the embedding backend identifier the class belongs to.
	Vectorizer string

	// VectorDimensions is the fixed vector size for objects in this
	// class. Zero for classes that store no vectors.
	VectorDimensions int

	// Properties are the scalar properties.
	Properties []Property
}

// StoredObject is one record in a storage class.
type StoredObject struct {
	// ID is the store-assigned identifier (UUID format).
	ID string

	// Class is the storage class the object belongs to.
	Class string

	// Properties holds the scalar property values.
	Properties map[string]any

	// Vector is the embedding, when the class carries one.
	Vector []float32
}

// StoreClient owns the single live connection to the external document
// store for the process lifetime. The adapter is responsible for safe
// concurrent use; callers never assume exclusive access. Bulk writes
// are not atomic per call.
type StoreClient interface {
	// ClassExists reports whether the named class exists.
	ClassExists(ctx context.Context, name string) (bool, error)

	// CreateClass creates a class. Returns domain.ErrAlreadyExists if
	// the class is already present.
	CreateClass(ctx context.Context, schema ClassSchema) error

	// GetClass returns the stored schema for a class, or
	// domain.ErrNotFound.
	GetClass(ctx context.Context, name string) (*ClassSchema, error)

	// ListClasses returns the names of all existing classes.
	ListClasses(ctx context.Context) ([]string, error)

	// DeleteClass removes a class and all its objects.
	DeleteClass(ctx context.Context, name string) error

	// DeleteAllClasses removes every class. Irreversible.
	DeleteAllClasses(ctx context.Context) error

	// UpsertObjects bulk-writes objects into a class and returns the
	// assigned IDs in input order. Objects without an ID get one.
	UpsertObjects(ctx context.Context, class string, objects []StoredObject) ([]string, error)

	// QueryObjects returns up to limit objects from a class with the
	// requested properties populated.
	QueryObjects(ctx context.Context, class string, properties []string, limit int) ([]StoredObject, error)

	// GetObjectByID returns one object, or domain.ErrNotFound.
	GetObjectByID(ctx context.Context, class, id string) (*StoredObject, error)

	// CountObjects returns the number of objects in a class.
	CountObjects(ctx context.Context, class string) (int, error)

	// Close releases the connection.
	Close() error
}
