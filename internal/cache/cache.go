// Package cache persists provider embeddings in SQLite so repeated runs
// do not go back to the network.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS embeddings (
		model TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		dim INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (model, text_hash)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_embeddings_model ON embeddings(model)`,
}

// Store is an embedding cache backed by a SQLite file
type Store struct {
	db   *sql.DB
	path string
}

// ModelStats counts cached vectors for one model
type ModelStats struct {
	Model   string `json:"model"`
	Entries int64  `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// Stats summarizes the cache contents
type Stats struct {
	Path    string       `json:"path"`
	Entries int64        `json:"entries"`
	Bytes   int64        `json:"bytes"`
	Models  []ModelStats `json:"models"`
}

// Open creates or opens the cache database, creating parent directories.
// The path ":memory:" opens a private in-memory cache.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("cache: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db, path != ":memory:"); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: apply schema: %w", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, onDisk bool) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(defaultBusyTimeout.Milliseconds())),
	}
	if onDisk {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("cache: apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Close finalises the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Key hashes a model and input text into the cache key
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for model and text
func (s *Store) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	var dim int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT dim, vector FROM embeddings WHERE model = ? AND text_hash = ?`,
		model, Key(model, text),
	).Scan(&dim, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	vec, err := decodeVector(blob, dim)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores or replaces a vector
func (s *Store) Put(ctx context.Context, model, text string, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("cache: refusing to store empty vector")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embeddings (model, text_hash, dim, vector, created_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(model, text_hash) DO UPDATE SET
			dim = excluded.dim,
			vector = excluded.vector,
			created_at = excluded.created_at`,
		model, Key(model, text), len(vector), encodeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Stats reports entry counts per model
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, COUNT(*), COALESCE(SUM(LENGTH(vector)), 0)
		 FROM embeddings GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{Path: s.path, Models: []ModelStats{}}
	for rows.Next() {
		var m ModelStats
		if err := rows.Scan(&m.Model, &m.Entries, &m.Bytes); err != nil {
			return nil, fmt.Errorf("cache: scan stats: %w", err)
		}
		stats.Entries += m.Entries
		stats.Bytes += m.Bytes
		stats.Models = append(stats.Models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}
	return stats, nil
}

// Purge deletes cached vectors for model, or everything when model is empty.
// It returns the number of rows removed.
func (s *Store) Purge(ctx context.Context, model string) (int64, error) {
	var res sql.Result
	var err error
	if model == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM embeddings`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE model = ?`, model)
	}
	if err != nil {
		return 0, fmt.Errorf("cache: purge: %w", err)
	}
	return res.RowsAffected()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte, dim int) ([]float32, error) {
	if len(b) != 4*dim {
		return nil, fmt.Errorf("cache: corrupt vector: %d bytes for dimension %d", len(b), dim)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
