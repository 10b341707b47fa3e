package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Roshanbtech/Extractify/internal/shared/apperror"
	"github.com/Roshanbtech/Extractify/internal/shared/storage/blob"
)

// fakeStore is an in-memory blob.Store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	saveErr   error
	fetchErr  error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return int64(len(data)), nil
}

func (s *fakeStore) Fetch(ctx context.Context, signedRef string) (io.ReadCloser, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	key := strings.TrimPrefix(signedRef, "ref:")
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return blob.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "ref:" + key, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// samplePDF assembles a minimal valid PDF with the given number of pages.
func samplePDF(t *testing.T, pageCount int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := ""
	for i := 0; i < pageCount; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %s] /Count %d >>\nendobj\n", kids, pageCount))

	for i := 0; i < pageCount; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 200] >>\nendobj\n", i+3))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)
	return buf.Bytes()
}

func newTestService(store blob.Store, repo CatalogRepo) *Service {
	return NewService(store, repo, time.Minute)
}

func mustUpload(t *testing.T, svc *Service, userID string, pageCount int) Subdocument {
	t.Helper()
	doc, err := svc.Upload(context.Background(), userID, "report.pdf", bytes.NewReader(samplePDF(t, pageCount)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return doc
}

func TestUploadRecordsDocument(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())

	doc := mustUpload(t, svc, "user-1", 3)

	if doc.PublicID == "" {
		t.Fatal("expected a public id")
	}
	if doc.PageCount != 3 {
		t.Fatalf("expected page count 3, got %d", doc.PageCount)
	}
	if doc.OriginalName != "report.pdf" {
		t.Fatalf("unexpected name %q", doc.OriginalName)
	}
	if !strings.Contains(doc.StorageKey, "/original/") {
		t.Fatalf("expected original storage key, got %q", doc.StorageKey)
	}
	if strings.Contains(doc.StorageKey, "user-1") {
		t.Fatalf("storage key must not embed the raw user id: %q", doc.StorageKey)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 stored object, got %d", store.count())
	}

	docs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].PublicID != doc.PublicID {
		t.Fatalf("expected the uploaded document in the catalog, got %+v", docs)
	}
}

func TestUploadRejectsCorruptPDF(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())

	_, err := svc.Upload(context.Background(), "user-1", "bad.pdf", strings.NewReader("not a pdf"))
	if !apperror.IsKind(err, apperror.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.count() != 0 {
		t.Fatal("nothing must be stored for a rejected upload")
	}

	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 0 {
		t.Fatal("nothing must be cataloged for a rejected upload")
	}
}

func TestUploadStoreFailure(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.saveErr = errors.New("bucket down")
	svc := newTestService(store, NewMemoryRepo())

	_, err := svc.Upload(context.Background(), "user-1", "report.pdf", bytes.NewReader(samplePDF(t, 1)))
	if !apperror.IsKind(err, apperror.Dependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 0 {
		t.Fatal("catalog must stay empty when storage fails")
	}
}

func TestListInsertionOrder(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())

	first := mustUpload(t, svc, "user-1", 1)
	second := mustUpload(t, svc, "user-1", 2)
	third := mustUpload(t, svc, "user-1", 3)

	docs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{first.PublicID, second.PublicID, third.PublicID}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i, id := range want {
		if docs[i].PublicID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, docs[i].PublicID)
		}
	}
}

func TestListScopedToUser(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())

	mustUpload(t, svc, "user-1", 1)
	mustUpload(t, svc, "user-2", 1)

	docs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected only user-1 documents, got %d", len(docs))
	}
}

func TestExtractCreatesSibling(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	src := mustUpload(t, svc, "user-1", 5)

	out, err := svc.Extract(context.Background(), "user-1", src.PublicID, []int{2, 4}, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if out.PublicID == src.PublicID {
		t.Fatal("extracted document must get a fresh public id")
	}
	if out.PageCount != 2 {
		t.Fatalf("expected page count 2, got %d", out.PageCount)
	}
	if !strings.HasPrefix(out.OriginalName, src.PublicID+"_extracted_") || !strings.HasSuffix(out.OriginalName, ".pdf") {
		t.Fatalf("unexpected derived name %q", out.OriginalName)
	}
	if !strings.Contains(out.StorageKey, "/extracted/") {
		t.Fatalf("expected extracted storage key, got %q", out.StorageKey)
	}

	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 2 {
		t.Fatalf("expected source and sibling in catalog, got %d entries", len(docs))
	}
	if _, err := svc.Repo.GetByUser(context.Background(), "user-1", src.PublicID); err != nil {
		t.Fatalf("source must remain untouched: %v", err)
	}
	if store.count() != 2 {
		t.Fatalf("expected 2 stored objects, got %d", store.count())
	}
}

func TestExtractOutOfRangeWritesNothing(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	src := mustUpload(t, svc, "user-1", 3)

	_, err := svc.Extract(context.Background(), "user-1", src.PublicID, []int{4}, nil)
	if !apperror.IsKind(err, apperror.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if store.count() != 1 {
		t.Fatalf("no new object may be stored, got %d", store.count())
	}
	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 1 {
		t.Fatalf("no new catalog entry may appear, got %d", len(docs))
	}
}

func TestExtractEmptySelection(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())
	src := mustUpload(t, svc, "user-1", 3)

	_, err := svc.Extract(context.Background(), "user-1", src.PublicID, nil, nil)
	if !apperror.IsKind(err, apperror.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractForeignDocumentForbidden(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())
	src := mustUpload(t, svc, "user-1", 3)

	_, err := svc.Extract(context.Background(), "user-2", src.PublicID, []int{1}, nil)
	if !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestExtractConcurrentSiblingsDistinct(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())
	src := mustUpload(t, svc, "user-1", 4)

	const workers = 8
	results := make(chan Subdocument, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := svc.Extract(context.Background(), "user-1", src.PublicID, []int{1, 3}, nil)
			if err != nil {
				errs <- err
				return
			}
			results <- doc
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("extract: %v", err)
	}
	seen := make(map[string]bool)
	for doc := range results {
		if seen[doc.PublicID] {
			t.Fatalf("duplicate public id %s", doc.PublicID)
		}
		seen[doc.PublicID] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d siblings, got %d", workers, len(seen))
	}
}

func TestOpenDownloadRoundTrip(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	content := samplePDF(t, 2)
	doc, err := svc.Upload(context.Background(), "user-1", "file.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	dl, err := svc.OpenDownload(context.Background(), "user-1", doc.PublicID)
	if err != nil {
		t.Fatalf("open download: %v", err)
	}
	defer dl.Body.Close()

	got, err := io.ReadAll(dl.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("downloaded content differs from upload")
	}
	if dl.Doc.PublicID != doc.PublicID {
		t.Fatalf("expected doc %s, got %s", doc.PublicID, dl.Doc.PublicID)
	}
}

func TestPrepareDownloadForeignDocumentForbidden(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())
	doc := mustUpload(t, svc, "user-1", 1)

	_, err := svc.PrepareDownload(context.Background(), "user-2", doc.PublicID)
	if !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestPrepareDownloadReturnsTTL(t *testing.T) {
	t.Parallel()
	svc := NewService(newFakeStore(), NewMemoryRepo(), 30*time.Second)
	doc := mustUpload(t, svc, "user-1", 1)

	ref, err := svc.PrepareDownload(context.Background(), "user-1", doc.PublicID)
	if err != nil {
		t.Fatalf("prepare download: %v", err)
	}
	if ref.URL == "" {
		t.Fatal("expected a url")
	}
	if ref.ExpiresIn != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %v", ref.ExpiresIn)
	}
}

func TestDeleteRemovesContentAndEntry(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	doc := mustUpload(t, svc, "user-1", 1)

	if err := svc.Delete(context.Background(), "user-1", doc.PublicID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if store.count() != 0 {
		t.Fatal("content must be removed")
	}
	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 0 {
		t.Fatal("catalog entry must be removed")
	}

	// A repeat delete behaves like any other ownership miss.
	err := svc.Delete(context.Background(), "user-1", doc.PublicID)
	if !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("expected forbidden on repeat delete, got %v", err)
	}
}

func TestDeleteForeignDocumentForbidden(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	doc := mustUpload(t, svc, "user-1", 1)

	err := svc.Delete(context.Background(), "user-2", doc.PublicID)
	if !apperror.IsKind(err, apperror.Forbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if store.count() != 1 {
		t.Fatal("content must remain for the owner")
	}
}

func TestDeleteToleratesMissingContent(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	doc := mustUpload(t, svc, "user-1", 1)

	if err := store.Delete(context.Background(), doc.StorageKey); err != nil {
		t.Fatalf("prime: %v", err)
	}

	if err := svc.Delete(context.Background(), "user-1", doc.PublicID); err != nil {
		t.Fatalf("delete with missing content: %v", err)
	}
	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 0 {
		t.Fatal("catalog entry must be removed")
	}
}

// flakyAppendRepo lets the first appends through, then fails.
type flakyAppendRepo struct {
	*MemoryRepo
	allowed int
	seen    int
}

func (r *flakyAppendRepo) Append(ctx context.Context, doc Subdocument) error {
	r.seen++
	if r.seen > r.allowed {
		return errors.New("catalog unavailable")
	}
	return r.MemoryRepo.Append(ctx, doc)
}

func TestExtractAppendFailureLeavesSourceOnly(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	repo := &flakyAppendRepo{MemoryRepo: NewMemoryRepo(), allowed: 1}
	svc := newTestService(store, repo)
	src := mustUpload(t, svc, "user-1", 3)

	_, err := svc.Extract(context.Background(), "user-1", src.PublicID, []int{1, 2}, nil)
	if !apperror.IsKind(err, apperror.Dependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	docs, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].PublicID != src.PublicID {
		t.Fatalf("only the source may be listed, got %+v", docs)
	}
	// The derived blob was already written and stays behind as an orphan.
	if store.count() != 2 {
		t.Fatalf("expected source plus orphaned blob, got %d objects", store.count())
	}
}

func TestDeleteContentFailureKeepsEntry(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, NewMemoryRepo())
	doc := mustUpload(t, svc, "user-1", 1)

	store.deleteErr = errors.New("backend down")
	err := svc.Delete(context.Background(), "user-1", doc.PublicID)
	if !apperror.IsKind(err, apperror.Dependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	docs, _ := svc.List(context.Background(), "user-1")
	if len(docs) != 1 || docs[0].PublicID != doc.PublicID {
		t.Fatalf("entry must stay listed after a failed content delete, got %+v", docs)
	}
	if store.count() != 1 {
		t.Fatalf("content must remain, got %d objects", store.count())
	}

	// Once the store recovers the same delete goes through.
	store.deleteErr = nil
	if err := svc.Delete(context.Background(), "user-1", doc.PublicID); err != nil {
		t.Fatalf("retry delete: %v", err)
	}
	if store.count() != 0 {
		t.Fatal("content must be removed on retry")
	}
	docs, _ = svc.List(context.Background(), "user-1")
	if len(docs) != 0 {
		t.Fatal("catalog entry must be removed on retry")
	}
}

// raceRepo simulates losing a delete race: the entry resolves but Remove
// reports it already gone.
type raceRepo struct {
	*MemoryRepo
}

func (r *raceRepo) Remove(ctx context.Context, userID, publicID string) (bool, error) {
	return false, nil
}

func TestDeleteLostRaceNotFound(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	repo := &raceRepo{MemoryRepo: NewMemoryRepo()}
	svc := newTestService(store, repo)
	doc := mustUpload(t, svc, "user-1", 1)

	err := svc.Delete(context.Background(), "user-1", doc.PublicID)
	if !apperror.IsKind(err, apperror.NotFound) {
		t.Fatalf("expected not found on lost race, got %v", err)
	}
}

func TestOperationsRequireIdentity(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "", "a.pdf", strings.NewReader("x")); !apperror.IsKind(err, apperror.Unauthenticated) {
		t.Fatalf("upload: expected unauthenticated, got %v", err)
	}
	if _, err := svc.List(ctx, ""); !apperror.IsKind(err, apperror.Unauthenticated) {
		t.Fatalf("list: expected unauthenticated, got %v", err)
	}
	if _, err := svc.Extract(ctx, "", "id", []int{1}, nil); !apperror.IsKind(err, apperror.Unauthenticated) {
		t.Fatalf("extract: expected unauthenticated, got %v", err)
	}
	if err := svc.Delete(ctx, "", "id"); !apperror.IsKind(err, apperror.Unauthenticated) {
		t.Fatalf("delete: expected unauthenticated, got %v", err)
	}
}
