package local

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Roshanbtech/Extractify/internal/shared/storage/blob"
)

// Store implements blob.Store on the local filesystem. Signed references
// are local: URLs carrying an HMAC over key and expiry, so the fetch path
// exercises the same mint-then-redeem contract as the S3 store.
type Store struct {
	baseDir string
	secret  []byte
	now     func() time.Time
}

// New creates a local blob store rooted at baseDir. The signing secret is
// per-process; references do not survive a restart.
func New(baseDir string) *Store {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		copy(secret[:], []byte(baseDir))
	}
	return &Store{baseDir: baseDir, secret: secret[:], now: time.Now}
}

// Save writes the reader to disk at the given storage key.
func (s *Store) Save(ctx context.Context, key string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := blob.ValidateKey(key); err != nil {
		return 0, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	_ = contentType
	return written, nil
}

// Fetch redeems a signed reference minted by SignedURL.
func (s *Store) Fetch(ctx context.Context, signedRef string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(signedRef)
	if err != nil || u.Scheme != "local" {
		return nil, blob.ErrInvalidRef
	}
	q := u.Query()
	key := q.Get("key")
	expRaw := q.Get("exp")
	sig := q.Get("sig")
	if key == "" || expRaw == "" || sig == "" {
		return nil, blob.ErrInvalidRef
	}

	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return nil, blob.ErrInvalidRef
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(key, exp))) {
		return nil, blob.ErrInvalidRef
	}
	if s.now().UTC().Unix() > exp {
		return nil, blob.ErrExpiredRef
	}
	if err := blob.ValidateKey(key); err != nil {
		return nil, blob.ErrInvalidRef
	}

	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blob.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the blob at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := blob.ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(key))); err != nil {
		if os.IsNotExist(err) {
			return blob.ErrNotFound
		}
		return err
	}
	return nil
}

// SignedURL mints a reference valid for ttl.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := blob.ValidateKey(key); err != nil {
		return "", err
	}

	exp := s.now().UTC().Add(ttl).Unix()
	q := url.Values{}
	q.Set("key", key)
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	return "local://blob?" + q.Encode(), nil
}

func (s *Store) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ blob.Store = (*Store)(nil)
