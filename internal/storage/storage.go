package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// Blob keys used by the other components. The background image is kept
// out of the settings file so a large image does not bloat every
// settings write.
const (
	BlobIconCache  = "iconcache.json"
	BlobBackground = "background.bin"
)

// Store is the local persistence interface: the main document plus
// named auxiliary blobs. The local store is always written, whatever
// remote mode is configured; it is the fallback snapshot.
type Store interface {
	// LoadData reads the main document. A missing or corrupt document
	// returns (nil, nil); callers fall back to model.DefaultData.
	LoadData() (*model.AppData, error)
	SaveData(data *model.AppData) error

	// LoadBlob reads a named auxiliary blob; ok is false when absent.
	LoadBlob(key string) (data []byte, ok bool, err error)
	SaveBlob(key string, data []byte) error
}

// JSONStore implements Store using one file per key in a directory.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a JSONStore rooted at dir.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

// Dir returns the storage directory.
func (s *JSONStore) Dir() string {
	return s.dir
}

const dataFile = "data.json"

// LoadData reads the main document from data.json. Missing and corrupt
// files are both treated as "no document yet".
func (s *JSONStore) LoadData() (*model.AppData, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, dataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt document must not brick the page; treat as absent.
		return nil, nil
	}
	data.Normalize()
	return &data, nil
}

// SaveData writes the main document, creating the directory if needed.
func (s *JSONStore) SaveData(data *model.AppData) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, dataFile), raw, 0644)
}

// LoadBlob reads an auxiliary blob file.
func (s *JSONStore) LoadBlob(key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// SaveBlob writes an auxiliary blob file.
func (s *JSONStore) SaveBlob(key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, key), data, 0644)
}

// DefaultDir returns the default storage directory: ~/.config/tabdeck
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "tabdeck"), nil
}

// OpenStore opens the appropriate local backend. Prefers SQLite if the
// database file exists, otherwise falls back to per-file JSON.
func OpenStore() (Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	sqlitePath := filepath.Join(dir, "tabdeck.db")
	if _, err := os.Stat(sqlitePath); err == nil {
		return NewSQLiteStore(sqlitePath)
	}

	return NewJSONStore(dir), nil
}
