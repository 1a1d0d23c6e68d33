// Package remote implements the sync destinations the persistence
// coordinator can write bookmark snapshots to: a WebDAV endpoint, a
// GitHub gist, and a size-limited key/value store standing in for
// browser sync storage.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// DefaultTimeout bounds every remote request. A timed-out request is
// classified separately from other network failures.
const DefaultTimeout = 12 * time.Second

var (
	// ErrNotFound means the remote has no document yet. It is not a
	// failure; the first save creates the document.
	ErrNotFound = errors.New("remote document not found")
	// ErrPayloadTooLarge means the destination's size quota was hit.
	ErrPayloadTooLarge = errors.New("payload exceeds sync storage quota")
)

// Remote is a sync destination holding one whole-document snapshot.
type Remote interface {
	Name() string
	// Fetch reads the remote snapshot. Returns ErrNotFound when no
	// document exists yet.
	Fetch(ctx context.Context) (*model.AppData, error)
	// Store overwrites the remote snapshot.
	Store(ctx context.Context, data *model.AppData) error
}

// Class buckets remote errors for log severity selection.
type Class int

const (
	// ClassNetwork covers offline, DNS and connection failures. Logged
	// quietly; the local snapshot stays authoritative.
	ClassNetwork Class = iota
	// ClassTimeout is a deadline hit, kept distinct from other network
	// failures for log severity, never retried automatically.
	ClassTimeout
	// ClassProtocol covers non-2xx responses and malformed payloads.
	ClassProtocol
)

// ProtocolError is a non-2xx response from a destination.
type ProtocolError struct {
	Status int
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected remote status %d", e.Status)
	}
	return fmt.Sprintf("unexpected remote status %d: %s", e.Status, e.Detail)
}

// Classify buckets an error from Fetch or Store.
func Classify(err error) Class {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassNetwork
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return ClassProtocol
	}
	if errors.Is(err, ErrPayloadTooLarge) {
		return ClassProtocol
	}
	return ClassProtocol
}
