package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// KV is the minimal key/value surface browser sync storage exposes.
// storage.SQLiteStore satisfies it.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// DefaultKVQuota mirrors the per-item quota of browser sync storage.
const DefaultKVQuota = 100 * 1024

// DefaultKVKey is the key the snapshot is stored under.
const DefaultKVKey = "tabdeck/data"

// KVRemote stores the snapshot in a size-limited key/value store. An
// oversized payload fails with ErrPayloadTooLarge; nothing special is
// done beyond propagating it.
type KVRemote struct {
	kv       KV
	key      string
	maxBytes int
}

// NewKVRemote wraps kv as a sync destination. maxBytes <= 0 applies the
// default quota.
func NewKVRemote(kv KV, key string, maxBytes int) *KVRemote {
	if key == "" {
		key = DefaultKVKey
	}
	if maxBytes <= 0 {
		maxBytes = DefaultKVQuota
	}
	return &KVRemote{kv: kv, key: key, maxBytes: maxBytes}
}

// Name implements Remote.
func (r *KVRemote) Name() string {
	return "browser-sync"
}

// Fetch implements Remote.
func (r *KVRemote) Fetch(ctx context.Context) (*model.AppData, error) {
	raw, ok, err := r.kv.Get(r.key)
	if err != nil {
		return nil, fmt.Errorf("sync storage get: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	var data model.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode remote document: %w", err)
	}
	data.Normalize()
	return &data, nil
}

// Store implements Remote.
func (r *KVRemote) Store(ctx context.Context, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if len(raw) > r.maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(raw))
	}
	if err := r.kv.Set(r.key, raw); err != nil {
		return fmt.Errorf("sync storage set: %w", err)
	}
	return nil
}
