package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Save inserts a dataset
func (r *DatasetRepository) Save(ctx context.Context, d *domain.Dataset) error {
	const q = `
INSERT INTO datasets (id, owner_id, name, records, archive_key, created_at)
VALUES (?,?,?,?,?,?);`

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, d.ID, d.OwnerID, stringOrDash(d.Name), jsonOr(d.Records, "[]"), d.ArchiveKey, createdAt.UTC())
	return err
}

func (r *DatasetRepository) Get(ctx context.Context, owner string, id domain.ID) (*domain.Dataset, error) {
	const q = `
SELECT id, owner_id, name, records, archive_key, created_at
FROM datasets
WHERE owner_id=? AND id=?;`
	d, err := scanDataset(r.db.QueryRowContext(ctx, q, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return d, err
}

// ListByOwner returns datasets in upload order, restricted to ids when given.
func (r *DatasetRepository) ListByOwner(ctx context.Context, owner string, ids []domain.ID) ([]*domain.Dataset, error) {
	q := `
SELECT id, owner_id, name, records, archive_key, created_at
FROM datasets
WHERE owner_id=?`
	args := []any{owner}
	if len(ids) > 0 {
		q += ` AND id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, string(id))
		}
	}
	q += ` ORDER BY created_at ASC, id ASC;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DatasetRepository) Delete(ctx context.Context, owner string, id domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE owner_id=? AND id=?;`, owner, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*domain.Dataset, error) {
	var d domain.Dataset
	var records []byte
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &records, &d.ArchiveKey, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(records, &d.Records); err != nil {
		return nil, fmt.Errorf("decode records of %s: %w", d.ID, err)
	}
	return &d, nil
}
