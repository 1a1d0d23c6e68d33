package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/tabdeck/internal/model"
)

const currentSchemaVersion = 1

// SQLiteStore implements Store using a single key/value table. The
// same table doubles as the size-limited KV the browser-sync
// destination writes through (see internal/remote).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a SQLiteStore at the given database path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		version = 0
	}

	if version < 1 {
		schema := `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS blobs (
				key TEXT PRIMARY KEY NOT NULL,
				value BLOB NOT NULL
			);

			INSERT OR REPLACE INTO schema_version (version) VALUES (1);
		`
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

const dataKey = "data"

// LoadData reads the main document from the blobs table. Missing and
// corrupt documents are both treated as "no document yet".
func (s *SQLiteStore) LoadData() (*model.AppData, error) {
	raw, ok, err := s.Get(dataKey)
	if err != nil || !ok {
		return nil, err
	}

	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, nil
	}
	data.Normalize()
	return &data, nil
}

// SaveData writes the main document.
func (s *SQLiteStore) SaveData(data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.Set(dataKey, raw)
}

// LoadBlob reads a named auxiliary blob.
func (s *SQLiteStore) LoadBlob(key string) ([]byte, bool, error) {
	return s.Get(key)
}

// SaveBlob writes a named auxiliary blob.
func (s *SQLiteStore) SaveBlob(key string, data []byte) error {
	return s.Set(key, data)
}

// Get reads a raw value by key.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set writes a raw value by key.
func (s *SQLiteStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
