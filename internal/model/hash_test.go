package model_test

import (
	"encoding/json"
	"testing"

	"github.com/nikbrunner/tabdeck/internal/model"
)

func TestHash_IgnoresTransientFields(t *testing.T) {
	a := testData()
	b := testData()
	b.UIOpacity = 0.5
	b.Background = model.Background{Mode: model.BackgroundCloud, Image: "img"}

	if a.Hash() != b.Hash() {
		t.Error("hash must ignore background and opacity")
	}
}

func TestHash_SensitiveToTreeChanges(t *testing.T) {
	base := testData().Hash()

	tests := []struct {
		name   string
		mutate func(d *model.AppData)
	}{
		{"rename node", func(d *model.AppData) { _ = d.RenameNode("a", "Renamed") }},
		{"reorder", func(d *model.AppData) { _ = d.MoveTo("a", "work", "", 2) }},
		{"active category", func(d *model.AppData) { d.ActiveCategory = "personal" }},
		{"remove node", func(d *model.AppData) { d.RemoveByID("x") }},
		{"rename category", func(d *model.AppData) { _ = d.RenameCategory("work", "Job") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testData()
			tt.mutate(d)
			if d.Hash() == base {
				t.Error("hash unchanged after mutation")
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	d := testData()
	if d.Hash() != d.Hash() {
		t.Error("hash must be stable across calls")
	}
}

func TestAppData_JSONRoundTrip(t *testing.T) {
	d := testData()
	d.UIOpacity = 0.8
	d.Background = model.Background{
		Mode:    model.BackgroundCloud,
		Opacity: 0.4,
		Cloud:   model.CloudBackground{FileName: "bg.jpg", DownloadURL: "https://cdn/bg.jpg", ETag: "abc"},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got model.AppData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Hash() != d.Hash() {
		t.Error("round-trip changed the content hash")
	}
	if !equalStrings(collectIDs(&got), collectIDs(d)) {
		t.Errorf("round-trip changed node order: %v vs %v", collectIDs(&got), collectIDs(d))
	}
	if got.Background.Cloud.FileName != "bg.jpg" || got.UIOpacity != 0.8 {
		t.Error("round-trip lost presentation fields")
	}

	// The nested folder variant survives with its recursive children.
	inner, ok := got.FindLocation("x")
	if !ok || inner.ParentFolderID != "inner" {
		t.Error("deeply nested link lost its position")
	}
}

func TestNormalize_RepairsDocument(t *testing.T) {
	d := &model.AppData{ActiveCategory: "ghost"}
	d.Normalize()

	if len(d.Categories) != 1 {
		t.Fatalf("expected a category to be created, got %d", len(d.Categories))
	}
	if d.ActiveCategory != d.Categories[0].ID {
		t.Error("active category should point at the created category")
	}
	if d.Categories[0].Bookmarks == nil {
		t.Error("bookmarks slice should be initialized")
	}
}
