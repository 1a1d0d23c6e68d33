package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want func(t *testing.T, s Settings)
	}{
		{
			name: "zero value gets defaults",
			in:   Settings{},
			want: func(t *testing.T, s Settings) {
				if s.StorageMode != ModeLocal {
					t.Errorf("StorageMode = %q", s.StorageMode)
				}
				if s.UIOpacity != 1 {
					t.Errorf("UIOpacity = %v", s.UIOpacity)
				}
				if s.SaveDebounceMS != 50 || s.RemoteTimeoutMS != 12000 || s.WarnCooldownMS != 8000 {
					t.Errorf("durations = %d/%d/%d", s.SaveDebounceMS, s.RemoteTimeoutMS, s.WarnCooldownMS)
				}
			},
		},
		{
			name: "unknown mode falls back to local",
			in:   Settings{StorageMode: "dropbox"},
			want: func(t *testing.T, s Settings) {
				if s.StorageMode != ModeLocal {
					t.Errorf("StorageMode = %q, want local", s.StorageMode)
				}
			},
		},
		{
			name: "opacity out of range resets",
			in:   Settings{UIOpacity: 3.5},
			want: func(t *testing.T, s Settings) {
				if s.UIOpacity != 1 {
					t.Errorf("UIOpacity = %v, want 1", s.UIOpacity)
				}
			},
		},
		{
			name: "valid values survive",
			in: Settings{
				StorageMode:    ModeWebDAV,
				UIOpacity:      0.7,
				SaveDebounceMS: 200,
			},
			want: func(t *testing.T, s Settings) {
				if s.StorageMode != ModeWebDAV || s.UIOpacity != 0.7 || s.SaveDebounceMS != 200 {
					t.Errorf("normalized away valid values: %+v", s)
				}
			},
		},
		{
			name: "gist mode fills the filename",
			in:   Settings{StorageMode: ModeGist},
			want: func(t *testing.T, s Settings) {
				if s.Gist.Filename != "tabdeck.json" {
					t.Errorf("Gist.Filename = %q", s.Gist.Filename)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			s.Normalize()
			tt.want(t, s)
		})
	}
}

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.StorageMode != ModeLocal {
		t.Errorf("StorageMode = %q, want local", settings.StorageMode)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults file not created: %v", err)
	}
}

func TestLoadMergesMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	// A partial file from an older version: only the mode is present.
	if err := os.WriteFile(path, []byte(`{"storageMode":"webdav","webdav":{"url":"https://dav.example/bm.json"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.StorageMode != ModeWebDAV {
		t.Errorf("StorageMode = %q, want webdav", settings.StorageMode)
	}
	if settings.WebDAV.URL != "https://dav.example/bm.json" {
		t.Errorf("WebDAV.URL = %q", settings.WebDAV.URL)
	}
	if settings.SaveDebounceMS != 50 {
		t.Errorf("SaveDebounceMS = %d, want the default", settings.SaveDebounceMS)
	}
	if settings.UIOpacity != 1 {
		t.Errorf("UIOpacity = %v, want the default", settings.UIOpacity)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	in := DefaultSettings()
	in.StorageMode = ModeGist
	in.Gist = GistSettings{Token: "tok", ID: "gist-9", Filename: "bm.json"}
	if err := Save(path, &in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.Gist != in.Gist {
		t.Errorf("Gist = %+v, want %+v", out.Gist, in.Gist)
	}
}
