// Package embedded provides a SQLite-backed implementation of the
// store client port for fully local operation.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It stores the
// same class/object model the remote adapter talks to, so the rest of
// the pipeline cannot tell the two apart.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.corpus/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package embedded

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/loomworks/corpus-cli/internal/adapters/driven/store/embedded/migrations"
	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StoreClient = (*Store)(nil)

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the embedded store at the given
// data directory. If dataDir is empty, defaults to ~/.corpus/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// WAL mode for concurrent readers during ingest writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ClassExists reports whether the named class exists.
func (s *Store) ClassExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM classes WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking class: %w", err)
	}
	return count > 0, nil
}

// CreateClass creates a class. An existing class with the same name is
// reported as domain.ErrAlreadyExists without being touched.
func (s *Store) CreateClass(ctx context.Context, schema driven.ClassSchema) error {
	propsJSON, err := json.Marshal(schema.Properties)
	if err != nil {
		return fmt.Errorf("marshalling properties: %w", err)
	}

	// INSERT OR IGNORE keeps creation race-safe without error-string
	// matching; zero rows affected means a concurrent creator won.
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO classes (name, description, vectorizer, vector_dimensions, properties)
		VALUES (?, ?, ?, ?, ?)
	`, schema.Class, schema.Description, schema.Vectorizer, schema.VectorDimensions, string(propsJSON))
	if err != nil {
		return fmt.Errorf("creating class: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// GetClass returns the stored schema for a class.
func (s *Store) GetClass(ctx context.Context, name string) (*driven.ClassSchema, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, description, vectorizer, vector_dimensions, properties
		FROM classes WHERE name = ?
	`, name)

	var schema driven.ClassSchema
	var propsJSON string
	if err := row.Scan(&schema.Class, &schema.Description, &schema.Vectorizer,
		&schema.VectorDimensions, &propsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning class: %w", err)
	}

	if err := json.Unmarshal([]byte(propsJSON), &schema.Properties); err != nil {
		return nil, fmt.Errorf("unmarshaling properties: %w", err)
	}

	return &schema, nil
}

// ListClasses returns the names of all existing classes.
func (s *Store) ListClasses(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM classes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning class name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating classes: %w", err)
	}

	return names, nil
}

// DeleteClass removes a class and all its objects.
func (s *Store) DeleteClass(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM classes WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting class: %w", err)
	}
	return nil
}

// DeleteAllClasses removes every class and every object.
func (s *Store) DeleteAllClasses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM classes")
	if err != nil {
		return fmt.Errorf("deleting classes: %w", err)
	}
	return nil
}

// UpsertObjects bulk-writes objects into a class and returns the
// assigned IDs in input order.
func (s *Store) UpsertObjects(ctx context.Context, class string, objects []driven.StoredObject) ([]string, error) {
	exists, err := s.ClassExists(ctx, class)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("class %s: %w", class, domain.ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects (id, class, properties, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id, class) DO UPDATE SET
			properties = excluded.properties,
			vector = excluded.vector,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}

		propsJSON, err := json.Marshal(obj.Properties)
		if err != nil {
			return nil, fmt.Errorf("marshalling properties: %w", err)
		}

		vectorBlob := float32SliceToBytes(obj.Vector)

		if _, err := stmt.ExecContext(ctx, obj.ID, class, string(propsJSON), vectorBlob); err != nil {
			return nil, fmt.Errorf("saving object: %w", err)
		}
		ids = append(ids, obj.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// QueryObjects returns up to limit objects from a class in insertion
// order.
func (s *Store) QueryObjects(ctx context.Context, class string, _ []string, limit int) ([]driven.StoredObject, error) {
	exists, err := s.ClassExists(ctx, class)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("class %s: %w", class, domain.ErrNotFound)
	}

	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, properties, vector
		FROM objects WHERE class = ?
		ORDER BY created_at, id
		LIMIT ?
	`, class, limit)
	if err != nil {
		return nil, fmt.Errorf("querying objects: %w", err)
	}
	defer rows.Close()

	var objects []driven.StoredObject //nolint:prealloc // size unknown from query
	for rows.Next() {
		obj, err := scanObject(rows, class)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating objects: %w", err)
	}

	return objects, nil
}

// GetObjectByID returns one object.
func (s *Store) GetObjectByID(ctx context.Context, class, id string) (*driven.StoredObject, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, properties, vector
		FROM objects WHERE class = ? AND id = ?
	`, class, id)

	var obj driven.StoredObject
	var propsJSON string
	var vectorBlob []byte
	if err := row.Scan(&obj.ID, &propsJSON, &vectorBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning object: %w", err)
	}

	obj.Class = class
	obj.Vector = bytesToFloat32Slice(vectorBlob)
	if err := json.Unmarshal([]byte(propsJSON), &obj.Properties); err != nil {
		return nil, fmt.Errorf("unmarshaling properties: %w", err)
	}

	return &obj, nil
}

// CountObjects returns the number of objects in a class.
func (s *Store) CountObjects(ctx context.Context, class string) (int, error) {
	exists, err := s.ClassExists(ctx, class)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("class %s: %w", class, domain.ErrNotFound)
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM objects WHERE class = ?", class).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return count, nil
}

// scanObject scans an object from *sql.Rows.
func scanObject(rows *sql.Rows, class string) (*driven.StoredObject, error) {
	var obj driven.StoredObject
	var propsJSON string
	var vectorBlob []byte

	if err := rows.Scan(&obj.ID, &propsJSON, &vectorBlob); err != nil {
		return nil, fmt.Errorf("scanning object: %w", err)
	}

	obj.Class = class
	obj.Vector = bytesToFloat32Slice(vectorBlob)
	if err := json.Unmarshal([]byte(propsJSON), &obj.Properties); err != nil {
		return nil, fmt.Errorf("unmarshaling properties: %w", err)
	}

	return &obj, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
