package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Roshanbtech/Extractify/internal/pages"
	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/storage/blob"
	"github.com/Roshanbtech/Extractify/internal/shared/telemetry"
	"github.com/Roshanbtech/Extractify/internal/shared/util"
)

const pdfContentType = "application/pdf"

// Service implements the document lifecycle: upload, list, page
// extraction, download and delete. All operations are scoped to the
// calling user; documents of other users behave as if they belong to a
// disjoint namespace.
type Service struct {
	Store        blob.Store
	Repo         CatalogRepo
	SignedURLTTL time.Duration

	// test seams, nil means production behavior
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(store blob.Store, repo CatalogRepo, signedURLTTL time.Duration) *Service {
	return &Service{
		Store:        store,
		Repo:         repo,
		SignedURLTTL: signedURLTTL,
	}
}

// Download bundles a document's metadata with its content stream.
type Download struct {
	Doc  Subdocument
	Body io.ReadCloser
}

// DownloadRef is a short-lived reference for fetching document content
// without further authentication.
type DownloadRef struct {
	URL       string
	ExpiresIn time.Duration
}

// Upload stores the PDF read from r under a fresh public id and records
// it in the caller's catalog. The content is parsed up front so corrupt
// files are rejected before anything is written.
func (s *Service) Upload(ctx context.Context, userID, originalName string, r io.Reader) (Subdocument, error) {
	if userID == "" {
		return Subdocument{}, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	name, err := util.SanitizeFileName(originalName)
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Validation, "invalid file name", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Validation, "failed to read uploaded file", err)
	}
	if len(data) == 0 {
		return Subdocument{}, apperror.New(apperror.Validation, "uploaded file is empty")
	}

	pageCount, err := pages.PageCount(data)
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Validation, "file is not a readable PDF", err)
	}

	key := storageKey(userID, "original", name)
	if err := blob.ValidateKey(key); err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Validation, "invalid file name", err)
	}

	size, err := s.Store.Save(ctx, key, pdfContentType, bytes.NewReader(data))
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to store document", err)
	}

	doc := Subdocument{
		PublicID:     s.nextID(),
		UserID:       userID,
		OriginalName: name,
		StorageKey:   key,
		SizeBytes:    size,
		PageCount:    pageCount,
		CreatedAt:    s.timeNow(),
	}
	if err := s.Repo.Append(ctx, doc); err != nil {
		// The blob is orphaned, a later upload with the same name overwrites it.
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to record document", err)
	}
	return doc, nil
}

// List returns the caller's documents in the order they were created.
func (s *Service) List(ctx context.Context, userID string) ([]Subdocument, error) {
	if userID == "" {
		return nil, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	docs, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Dependency, "failed to list documents", err)
	}
	return docs, nil
}

// Extract builds a new document from selected pages of an existing one.
// pageNumbers holds 1-based source page indices; order, when it has the
// same length, holds 1-based positions into pageNumbers and dictates the
// output sequence. The source document is left untouched and the result
// is recorded as an independent sibling.
func (s *Service) Extract(ctx context.Context, userID, publicID string, pageNumbers, order []int) (Subdocument, error) {
	if userID == "" {
		return Subdocument{}, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	if publicID == "" {
		return Subdocument{}, apperror.New(apperror.Validation, "publicId is required")
	}
	if len(pageNumbers) == 0 {
		return Subdocument{}, apperror.New(apperror.Validation, "pages is required")
	}

	src, err := s.getOwned(ctx, userID, publicID)
	if err != nil {
		return Subdocument{}, err
	}

	data, err := s.fetchContent(ctx, src.StorageKey)
	if err != nil {
		return Subdocument{}, err
	}

	out, err := pages.ExtractPages(data, pageNumbers, order)
	if err != nil {
		switch {
		case errors.Is(err, pages.ErrEmptySelection),
			errors.Is(err, pages.ErrPageOutOfRange),
			errors.Is(err, pages.ErrOrderOutOfRange):
			return Subdocument{}, apperror.Wrap(apperror.Validation, err.Error(), err)
		case errors.Is(err, pages.ErrCorruptSource):
			return Subdocument{}, apperror.Wrap(apperror.Dependency, "stored document is not a readable PDF", err)
		default:
			return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to extract pages", err)
		}
	}

	name := fmt.Sprintf("%s_extracted_%d.pdf", src.PublicID, s.timeNow().UnixMilli())
	key := storageKey(userID, "extracted", name)
	if err := blob.ValidateKey(key); err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "derived storage key invalid", err)
	}

	size, err := s.Store.Save(ctx, key, pdfContentType, bytes.NewReader(out))
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to store extracted document", err)
	}

	doc := Subdocument{
		PublicID:     s.nextID(),
		UserID:       userID,
		OriginalName: name,
		StorageKey:   key,
		SizeBytes:    size,
		PageCount:    len(pageNumbers),
		CreatedAt:    s.timeNow(),
	}
	if err := s.Repo.Append(ctx, doc); err != nil {
		telemetry.Warn("extract.catalog_append_failed", map[string]any{
			"storage_key": key,
			"error":       err.Error(),
		})
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to record extracted document", err)
	}
	return doc, nil
}

// PrepareDownload mints a short-lived reference for the document's
// content, valid without further authentication until it expires.
func (s *Service) PrepareDownload(ctx context.Context, userID, publicID string) (DownloadRef, error) {
	if userID == "" {
		return DownloadRef{}, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	if publicID == "" {
		return DownloadRef{}, apperror.New(apperror.Validation, "publicId is required")
	}

	doc, err := s.getOwned(ctx, userID, publicID)
	if err != nil {
		return DownloadRef{}, err
	}

	ref, err := s.Store.SignedURL(ctx, doc.StorageKey, s.ttl())
	if err != nil {
		return DownloadRef{}, apperror.Wrap(apperror.Dependency, "failed to sign download url", err)
	}
	return DownloadRef{URL: ref, ExpiresIn: s.ttl()}, nil
}

// OpenDownload resolves the document and returns its content stream for
// proxying to the caller. The caller must close the body.
func (s *Service) OpenDownload(ctx context.Context, userID, publicID string) (Download, error) {
	if userID == "" {
		return Download{}, apperror.New(apperror.Unauthenticated, "user identity required")
	}
	if publicID == "" {
		return Download{}, apperror.New(apperror.Validation, "publicId is required")
	}

	doc, err := s.getOwned(ctx, userID, publicID)
	if err != nil {
		return Download{}, err
	}

	ref, err := s.Store.SignedURL(ctx, doc.StorageKey, s.ttl())
	if err != nil {
		return Download{}, apperror.Wrap(apperror.Dependency, "failed to sign download url", err)
	}
	body, err := s.Store.Fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Download{}, apperror.Wrap(apperror.NotFound, "document content missing", err)
		}
		return Download{}, apperror.Wrap(apperror.Dependency, "failed to fetch document", err)
	}
	return Download{Doc: doc, Body: body}, nil
}

// Delete removes the document's content and its catalog entry. Content
// removal runs first so a partial failure leaves the entry visible and
// the operation retryable. Content that is already gone is not an error.
func (s *Service) Delete(ctx context.Context, userID, publicID string) error {
	if userID == "" {
		return apperror.New(apperror.Unauthenticated, "user identity required")
	}
	if publicID == "" {
		return apperror.New(apperror.Validation, "publicId is required")
	}

	doc, err := s.getOwned(ctx, userID, publicID)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return apperror.Wrap(apperror.Dependency, "failed to delete document content", err)
	}

	removed, err := s.Repo.Remove(ctx, userID, publicID)
	if err != nil {
		return apperror.Wrap(apperror.Dependency, "failed to delete document", err)
	}
	if !removed {
		// Lost a race with a concurrent delete.
		return apperror.New(apperror.NotFound, "document not found")
	}
	return nil
}

// getOwned fetches a document scoped to its owner. A miss is reported as
// forbidden regardless of whether the id exists for another user, so the
// response never reveals the catalog of anyone else.
func (s *Service) getOwned(ctx context.Context, userID, publicID string) (Subdocument, error) {
	doc, err := s.Repo.GetByUser(ctx, userID, publicID)
	if errors.Is(err, ErrNotFound) {
		return Subdocument{}, apperror.New(apperror.Forbidden, "document does not belong to user")
	}
	if err != nil {
		return Subdocument{}, apperror.Wrap(apperror.Dependency, "failed to load document", err)
	}
	return doc, nil
}

// fetchContent pulls the full blob via a freshly minted signed reference.
func (s *Service) fetchContent(ctx context.Context, key string) ([]byte, error) {
	ref, err := s.Store.SignedURL(ctx, key, s.ttl())
	if err != nil {
		return nil, apperror.Wrap(apperror.Dependency, "failed to sign storage reference", err)
	}
	body, err := s.Store.Fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, apperror.Wrap(apperror.NotFound, "document content missing", err)
		}
		return nil, apperror.Wrap(apperror.Dependency, "failed to fetch document", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperror.Wrap(apperror.Dependency, "failed to read document", err)
	}
	return data, nil
}

// storageKey namespaces object keys by a hash of the owner so keys never
// embed raw user identifiers.
func storageKey(userID, class, name string) string {
	return fmt.Sprintf("%s/%s/%s", util.HashUserKey(userID), class, name)
}

func (s *Service) ttl() time.Duration {
	if s.SignedURLTTL > 0 {
		return s.SignedURLTTL
	}
	return time.Minute
}

func (s *Service) timeNow() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) nextID() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}
