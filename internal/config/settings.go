// Package config holds the persisted application settings: which sync
// destination is active, its credentials, and the page presentation
// knobs that are not part of the bookmark document itself.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// StorageMode selects the sync destination.
type StorageMode string

const (
	ModeLocal       StorageMode = "local"
	ModeBrowserSync StorageMode = "browser-sync"
	ModeWebDAV      StorageMode = "webdav"
	ModeGist        StorageMode = "gist"
)

// WebDAVSettings configures the WebDAV destination.
type WebDAVSettings struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// GistSettings configures the gist destination. ID is filled in
// automatically after the first save creates the gist.
type GistSettings struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// Settings is the full settings document.
type Settings struct {
	StorageMode StorageMode    `json:"storageMode"`
	WebDAV      WebDAVSettings `json:"webdav"`
	Gist        GistSettings   `json:"gist"`

	UIOpacity float64 `json:"uiOpacity"`

	// Durations are stored in milliseconds so the JSON stays readable.
	SaveDebounceMS  int `json:"saveDebounceMs"`
	RemoteTimeoutMS int `json:"remoteTimeoutMs"`
	WarnCooldownMS  int `json:"warnCooldownMs"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		StorageMode:     ModeLocal,
		UIOpacity:       1,
		SaveDebounceMS:  50,
		RemoteTimeoutMS: 12000,
		WarnCooldownMS:  8000,
	}
}

// Normalize merges defaults into missing fields and clamps out-of-range
// values. Unknown storage modes fall back to local rather than failing,
// so a settings blob written by a newer version still loads.
func (s *Settings) Normalize() {
	defaults := DefaultSettings()

	switch s.StorageMode {
	case ModeLocal, ModeBrowserSync, ModeWebDAV, ModeGist:
	default:
		s.StorageMode = ModeLocal
	}
	if s.UIOpacity <= 0 || s.UIOpacity > 1 {
		s.UIOpacity = defaults.UIOpacity
	}
	if s.SaveDebounceMS <= 0 {
		s.SaveDebounceMS = defaults.SaveDebounceMS
	}
	if s.RemoteTimeoutMS <= 0 {
		s.RemoteTimeoutMS = defaults.RemoteTimeoutMS
	}
	if s.WarnCooldownMS <= 0 {
		s.WarnCooldownMS = defaults.WarnCooldownMS
	}
	if s.StorageMode == ModeGist && s.Gist.Filename == "" {
		s.Gist.Filename = "tabdeck.json"
	}
}

// SaveDebounce returns the debounce window as a duration.
func (s *Settings) SaveDebounce() time.Duration {
	return time.Duration(s.SaveDebounceMS) * time.Millisecond
}

// RemoteTimeout returns the remote request timeout as a duration.
func (s *Settings) RemoteTimeout() time.Duration {
	return time.Duration(s.RemoteTimeoutMS) * time.Millisecond
}

// WarnCooldown returns the per-destination warning cooldown.
func (s *Settings) WarnCooldown() time.Duration {
	return time.Duration(s.WarnCooldownMS) * time.Millisecond
}

// Load reads settings from the JSON file. Creates the file with
// defaults if it doesn't exist.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			settings := DefaultSettings()
			if saveErr := Save(path, &settings); saveErr != nil {
				// Non-fatal: return defaults even if save fails
				return &settings, nil
			}
			return &settings, nil
		}
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	settings.Normalize()
	return &settings, nil
}

// Save writes settings to the JSON file. Creates the directory if it
// doesn't exist.
func Save(path string, settings *Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the default settings path:
// ~/.config/tabdeck/settings.json
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "tabdeck", "settings.json"), nil
}
