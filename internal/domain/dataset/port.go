package dataset

import "context"

// Repository port for persisting datasets
type Repository interface {
	Save(ctx context.Context, d *Dataset) error
	Get(ctx context.Context, owner string, id ID) (*Dataset, error)
	// ListByOwner returns the owner's datasets in upload order.
	// A nil or empty ids slice returns all of them.
	ListByOwner(ctx context.Context, owner string, ids []ID) ([]*Dataset, error)
	Delete(ctx context.Context, owner string, id ID) error
}

// Archive keeps the original uploaded file next to the parsed records.
type Archive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
