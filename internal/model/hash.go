package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashEnvelope is the subset of AppData that participates in snapshot
// comparison. Background and opacity are transient presentation fields
// and deliberately excluded.
type hashEnvelope struct {
	Categories     []Category `json:"categories"`
	ActiveCategory string     `json:"activeCategory"`
}

// Hash returns a stable content hash over the categories and the active
// category reference. Two documents differing only in non-key fields
// hash identically; any change to the tree or the active category
// changes the hash.
func (d *AppData) Hash() string {
	data, err := json.Marshal(hashEnvelope{
		Categories:     d.Categories,
		ActiveCategory: d.ActiveCategory,
	})
	if err != nil {
		// Marshalling a plain struct tree cannot fail; keep the
		// signature simple.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
