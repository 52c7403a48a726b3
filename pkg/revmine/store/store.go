package store

import (
	"context"

	"github.com/driftline/revmine/pkg/revmine/review"
)

// Store archives processed review batches.
type Store interface {
	Close() error

	// SaveBatch persists a batch and all of its reviews. Saving the
	// same batch ID again replaces the earlier copy.
	SaveBatch(ctx context.Context, b review.Batch) error

	// GetBatch returns a batch with its reviews, or
	// internalerr.ErrNotFound.
	GetBatch(ctx context.Context, id string) (review.Batch, error)

	// ListBatches returns batch metadata (no reviews) for the most
	// recent batches, newest first. A non-positive limit means all.
	ListBatches(ctx context.Context, limit int) ([]review.Batch, error)

	// LoadAll returns every stored batch with reviews, newest first.
	LoadAll(ctx context.Context) ([]review.Batch, error)
}
