package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements BlobStore using a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS record_blobs (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		etag TEXT NOT NULL DEFAULT '',
		modified_at TIMESTAMP NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addETagColumn(db)
}

// addETagColumn upgrades databases created before blobs carried an etag.
func addETagColumn(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('record_blobs')`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == "etag" {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = db.Exec(`ALTER TABLE record_blobs ADD COLUMN etag TEXT NOT NULL DEFAULT ''`)
	return err
}

// List returns blobs whose id starts with prefix.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, size, etag, modified_at FROM record_blobs
		 WHERE substr(id, 1, ?) = ? ORDER BY id`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blobs []BlobInfo
	for rows.Next() {
		var b BlobInfo
		if err := rows.Scan(&b.ID, &b.Size, &b.ETag, &b.ModifiedAt); err != nil {
			return nil, err
		}
		b.URL = s.url(b.ID)
		blobs = append(blobs, b)
	}
	return blobs, rows.Err()
}

// Get returns the blob for id.
func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM record_blobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put inserts or replaces the blob for id.
func (s *SQLiteStore) Put(ctx context.Context, id string, data []byte) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO record_blobs (id, data, size, etag, modified_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, size = excluded.size,
		 etag = excluded.etag, modified_at = excluded.modified_at`,
		id, data, len(data), ContentETag(data), time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return s.url(id), nil
}

// Exists reports whether a blob is stored for id.
func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM record_blobs WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the blob for id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM record_blobs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DiskUsage returns the size in bytes of the database file and its WAL side files.
// Missing files contribute 0.
func (s *SQLiteStore) DiskUsage() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) url(id string) string {
	return "sqlite://" + filepath.ToSlash(s.path) + "#" + strings.TrimSpace(id)
}
