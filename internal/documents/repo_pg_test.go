package documents

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGRepo(db), mock
}

func TestPGRepoAppend(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	doc := Subdocument{
		PublicID:     "pub-1",
		UserID:       "user-1",
		OriginalName: "report.pdf",
		StorageKey:   "abc/original/report.pdf",
		SizeBytes:    1024,
		PageCount:    7,
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO subdocuments`).
		WithArgs(doc.PublicID, doc.UserID, doc.OriginalName, doc.StorageKey, doc.SizeBytes, doc.PageCount, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Append(context.Background(), doc); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListByUserOrdersBySeq(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"public_id", "user_id", "original_name", "storage_key", "size_bytes", "page_count", "created_at"}).
		AddRow("pub-1", "user-1", "a.pdf", "k/original/a.pdf", int64(10), 1, now).
		AddRow("pub-2", "user-1", "b.pdf", "k/original/b.pdf", int64(20), 2, now)

	mock.ExpectQuery(`FROM subdocuments\s+WHERE user_id = \$1\s+ORDER BY seq ASC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	docs, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].PublicID != "pub-1" || docs[1].PublicID != "pub-2" {
		t.Fatalf("unexpected result: %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByUserNotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM subdocuments\s+WHERE user_id = \$1 AND public_id = \$2`).
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"public_id", "user_id", "original_name", "storage_key", "size_bytes", "page_count", "created_at"}))

	_, err := repo.GetByUser(context.Background(), "user-1", "missing")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoRemoveReportsPresence(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM subdocuments WHERE user_id = \$1 AND public_id = \$2`).
		WithArgs("user-1", "pub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM subdocuments WHERE user_id = \$1 AND public_id = \$2`).
		WithArgs("user-1", "pub-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Remove(context.Background(), "user-1", "pub-1")
	if err != nil || !removed {
		t.Fatalf("first remove: removed=%v err=%v", removed, err)
	}
	removed, err = repo.Remove(context.Background(), "user-1", "pub-1")
	if err != nil || removed {
		t.Fatalf("second remove: removed=%v err=%v", removed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
