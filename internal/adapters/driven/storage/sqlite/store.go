package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lexica-labs/docq-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// Store is a SQLite-backed ChunkStore. One database holds the record
// key to chunk mapping of a single index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if necessary) the chunk database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("chunk database path not set: %w", domain.ErrConfiguration)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Open is an OpenChunkStore-compatible constructor.
func Open(path string) (driven.ChunkStore, error) {
	return NewStore(path)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveChunks stores keyed chunks. Saving a key that already exists
// replaces its chunk.
func (s *Store) SaveChunks(ctx context.Context, chunks []driven.KeyedChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (record_key, chunk_id, source_id, page, chunk_index, content, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_key) DO UPDATE SET
			chunk_id = excluded.chunk_id,
			source_id = excluded.source_id,
			page = excluded.page,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, kc := range chunks {
		metadataJSON, err := json.Marshal(kc.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for chunk %s: %w", kc.Chunk.ID, err)
		}

		var page sql.NullInt64
		if kc.Chunk.Page != nil {
			page = sql.NullInt64{Int64: int64(*kc.Chunk.Page), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			int64(kc.Key), kc.Chunk.ID, kc.Chunk.SourceID, page,
			kc.Chunk.ChunkIndex, kc.Chunk.Content, string(metadataJSON),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", kc.Chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// LoadChunks returns all keyed chunks ordered by record key.
func (s *Store) LoadChunks(ctx context.Context) ([]driven.KeyedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_key, chunk_id, source_id, page, chunk_index, content, metadata
		FROM chunks
		ORDER BY record_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []driven.KeyedChunk
	for rows.Next() {
		var (
			key          int64
			chunk        domain.Chunk
			page         sql.NullInt64
			metadataJSON string
		)
		if err := rows.Scan(&key, &chunk.ID, &chunk.SourceID, &page,
			&chunk.ChunkIndex, &chunk.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if page.Valid {
			p := int(page.Int64)
			chunk.Page = &p
		}
		if metadataJSON != "" && metadataJSON != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata for chunk %s: %w", chunk.ID, err)
			}
		}

		chunks = append(chunks, driven.KeyedChunk{Key: uint64(key), Chunk: chunk})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// SourceCounts returns the number of chunks per source.
func (s *Store) SourceCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, COUNT(*)
		FROM chunks
		GROUP BY source_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying source counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source counts: %w", err)
	}

	return counts, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
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
		// Extract version number (e.g., "001_chunks.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
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
