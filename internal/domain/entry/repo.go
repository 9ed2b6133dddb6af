package entry

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("entry not found")

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	// Delete removes the entry and returns it as it was stored.
	Delete(ctx context.Context, id int64) (*Entry, error)
	// List returns entries newest first along with the total count.
	List(ctx context.Context, limit, offset int) ([]*Entry, int, error)
	Clear(ctx context.Context) (int64, error)
}
