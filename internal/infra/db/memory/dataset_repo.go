package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

// DatasetRepository keeps datasets in process memory.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[dataset.ID]*dataset.Dataset
}

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{datasets: make(map[dataset.ID]*dataset.Dataset)}
}

func (r *DatasetRepository) Save(ctx context.Context, d *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *d
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.datasets[d.ID] = &cp
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, owner string, id dataset.ID) (*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datasets[id]
	if !ok || d.OwnerID != owner {
		return nil, dataset.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *DatasetRepository) ListByOwner(ctx context.Context, owner string, ids []dataset.ID) ([]*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[dataset.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []*dataset.Dataset
	for _, d := range r.datasets {
		if d.OwnerID != owner {
			continue
		}
		if len(want) > 0 && !want[d.ID] {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *DatasetRepository) Delete(ctx context.Context, owner string, id dataset.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.datasets[id]
	if !ok || d.OwnerID != owner {
		return dataset.ErrNotFound
	}
	delete(r.datasets, id)
	return nil
}
