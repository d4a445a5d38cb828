package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	domain "github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Save inserts a dataset. Datasets are immutable, so a conflicting id is an error.
func (r *DatasetRepository) Save(ctx context.Context, d *domain.Dataset) error {
	const q = `
INSERT INTO datasets (id, owner_id, name, records, archive_key, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	records := jsonOr(d.Records, "[]")
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, d.ID, d.OwnerID, stringOrDash(d.Name), records, d.ArchiveKey, createdAt)
	return err
}

func (r *DatasetRepository) Get(ctx context.Context, owner string, id domain.ID) (*domain.Dataset, error) {
	const q = `
SELECT id, owner_id, name, records, archive_key, created_at
FROM datasets
WHERE owner_id=$1 AND id=$2;`
	d, err := scanDataset(r.db.QueryRowContext(ctx, q, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return d, err
}

// ListByOwner returns datasets in upload order; a nil ids slice binds NULL and disables the filter.
func (r *DatasetRepository) ListByOwner(ctx context.Context, owner string, ids []domain.ID) ([]*domain.Dataset, error) {
	const q = `
SELECT id, owner_id, name, records, archive_key, created_at
FROM datasets
WHERE owner_id=$1 AND ($2::text[] IS NULL OR id = ANY($2::text[]))
ORDER BY created_at ASC, id ASC;`

	var filter []string
	for _, id := range ids {
		filter = append(filter, string(id))
	}
	rows, err := r.db.QueryContext(ctx, q, owner, pq.Array(filter))
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE owner_id=$1 AND id=$2;`, owner, id)
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
