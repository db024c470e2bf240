package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the on-device store: one row per partition plus a small
// key/value meta table.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for durability and concurrent readers.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the raw blob for p, or nil when p has never been saved.
func (s *SQLiteStore) Load(ctx context.Context, p Partition) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM partitions WHERE key = ?`, string(p)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", p, err)
	}
	return blob, nil
}

// Save overwrites the blob for p.
func (s *SQLiteStore) Save(ctx context.Context, p Partition, blob []byte) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPartition, p)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partitions (key, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
	`, string(p), blob, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save partition %s: %w", p, err)
	}
	return nil
}

// GetMeta retrieves a meta value by key.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get meta: %w", err)
	}
	return value, nil
}

// SetMeta sets a meta value.
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO meta (key, value, updated_at) VALUES (?, ?, ?)
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// Stats reports the size and last write of every saved partition.
func (s *SQLiteStore) Stats(ctx context.Context) ([]PartitionStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, length(blob), updated_at FROM partitions ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("query partition stats: %w", err)
	}
	defer rows.Close()

	var stats []PartitionStats
	for rows.Next() {
		var (
			key       string
			size      int
			updatedAt string
		)
		if err := rows.Scan(&key, &size, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan partition stats: %w", err)
		}
		ps := PartitionStats{Partition: Partition(key), Bytes: size}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			ps.UpdatedAt = t
		}
		stats = append(stats, ps)
	}
	return stats, rows.Err()
}

// Snapshot writes a consistent copy of the database to path using VACUUM INTO.
// An existing file at path is replaced.
func (s *SQLiteStore) Snapshot(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}
