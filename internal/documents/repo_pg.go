package documents

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo is the Postgres-backed CatalogRepo over the subdocuments table.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

func (r *PGRepo) Append(ctx context.Context, doc Subdocument) error {
	const q = `
		INSERT INTO subdocuments (public_id, user_id, original_name, storage_key, size_bytes, page_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, q,
		doc.PublicID, doc.UserID, doc.OriginalName, doc.StorageKey,
		doc.SizeBytes, doc.PageCount, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subdocument: %w", err)
	}
	return nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Subdocument, error) {
	const q = `
		SELECT public_id, user_id, original_name, storage_key, size_bytes, page_count, created_at
		FROM subdocuments
		WHERE user_id = $1
		ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list subdocuments: %w", err)
	}
	defer rows.Close()

	docs := make([]Subdocument, 0)
	for rows.Next() {
		var doc Subdocument
		if err := rows.Scan(&doc.PublicID, &doc.UserID, &doc.OriginalName, &doc.StorageKey,
			&doc.SizeBytes, &doc.PageCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subdocument: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subdocuments: %w", err)
	}
	return docs, nil
}

func (r *PGRepo) GetByUser(ctx context.Context, userID, publicID string) (Subdocument, error) {
	const q = `
		SELECT public_id, user_id, original_name, storage_key, size_bytes, page_count, created_at
		FROM subdocuments
		WHERE user_id = $1 AND public_id = $2`

	var doc Subdocument
	err := r.db.QueryRowContext(ctx, q, userID, publicID).Scan(
		&doc.PublicID, &doc.UserID, &doc.OriginalName, &doc.StorageKey,
		&doc.SizeBytes, &doc.PageCount, &doc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return Subdocument{}, ErrNotFound
	}
	if err != nil {
		return Subdocument{}, fmt.Errorf("get subdocument: %w", err)
	}
	return doc, nil
}

func (r *PGRepo) Remove(ctx context.Context, userID, publicID string) (bool, error) {
	const q = `DELETE FROM subdocuments WHERE user_id = $1 AND public_id = $2`

	res, err := r.db.ExecContext(ctx, q, userID, publicID)
	if err != nil {
		return false, fmt.Errorf("delete subdocument: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subdocument: %w", err)
	}
	return n > 0, nil
}

var _ CatalogRepo = (*PGRepo)(nil)
