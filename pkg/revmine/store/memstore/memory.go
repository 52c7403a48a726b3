package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/review"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	batches map[string]review.Batch
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{batches: make(map[string]review.Batch)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveBatch stores a deep copy of the batch, keyed by ID.
func (s *Store) SaveBatch(ctx context.Context, b review.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = copyBatch(b)
	return nil
}

// GetBatch returns a batch by ID.
func (s *Store) GetBatch(ctx context.Context, id string) (review.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.batches[id]; ok {
		return copyBatch(b), nil
	}
	return review.Batch{}, fmt.Errorf("%w: batch %s", internalerr.ErrNotFound, id)
}

// ListBatches returns batch metadata without reviews, newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]review.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]review.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		meta := copyBatch(b)
		meta.Reviews = nil
		batches = append(batches, meta)
	}
	sortNewestFirst(batches)

	if limit > 0 && len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

// LoadAll returns every stored batch with reviews, newest first.
func (s *Store) LoadAll(ctx context.Context) ([]review.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := make([]review.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		batches = append(batches, copyBatch(b))
	}
	sortNewestFirst(batches)
	return batches, nil
}

func sortNewestFirst(batches []review.Batch) {
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].ScrapedAt != batches[j].ScrapedAt {
			return batches[i].ScrapedAt > batches[j].ScrapedAt
		}
		return batches[i].ID > batches[j].ID
	})
}

func copyBatch(b review.Batch) review.Batch {
	out := b
	if b.ProcessingStats != nil {
		out.ProcessingStats = make(map[string]int, len(b.ProcessingStats))
		for k, v := range b.ProcessingStats {
			out.ProcessingStats[k] = v
		}
	}
	if b.Reviews != nil {
		out.Reviews = make([]review.Review, len(b.Reviews))
		for i, r := range b.Reviews {
			out.Reviews[i] = copyReview(r)
		}
	}
	return out
}

func copyReview(r review.Review) review.Review {
	out := r
	if r.CategoryScores != nil {
		out.CategoryScores = make(map[string]float64, len(r.CategoryScores))
		for k, v := range r.CategoryScores {
			out.CategoryScores[k] = v
		}
	}
	if r.KeywordsFound != nil {
		out.KeywordsFound = append([]string(nil), r.KeywordsFound...)
	}
	return out
}
