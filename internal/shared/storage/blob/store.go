package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound reports a delete against a blob that is already gone.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidRef reports a signed reference that fails verification.
	ErrInvalidRef = errors.New("invalid signed reference")
	// ErrExpiredRef reports a signed reference used past its expiry.
	ErrExpiredRef = errors.New("signed reference expired")
)

// Store is the gateway to durable binary storage. Keys are computed by
// the caller; signed references are minted here and are the only way to
// read blob content back.
type Store interface {
	Save(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Fetch(ctx context.Context, signedRef string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ValidateKey rejects keys that could escape the storage namespace.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage key is empty")
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return errors.New("storage key contains traversal characters")
	}
	if strings.HasPrefix(key, "/") {
		return errors.New("storage key must be relative")
	}
	if path.Clean(key) != key {
		return errors.New("storage key is not canonical")
	}
	return nil
}
