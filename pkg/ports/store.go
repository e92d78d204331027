package ports

import (
	"context"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// RunStore persists finished run records.
type RunStore interface {
	// Save persists (or replaces) a record keyed by its ID.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if the record does not exist.
	Load(ctx context.Context, id string) (*domain.RunRecord, error)

	// List returns stored record IDs, most recently finished first.
	List(ctx context.Context) ([]string, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}
