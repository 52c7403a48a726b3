package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/review"
)

func testBatch(id, scrapedAt string) review.Batch {
	return review.Batch{
		ID:        id,
		AppName:   "Duolingo",
		Platform:  "reddit",
		ScrapedAt: scrapedAt,
		Reviews: []review.Review{
			{ReviewID: id + "-r1", Platform: "reddit", AppName: "Duolingo", Content: "works fine"},
		},
	}
}

func TestSaveAndGetBatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := testBatch("b1", "2024-06-01T10:00:00")
	if err := s.SaveBatch(ctx, b); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := s.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.AppName != "Duolingo" || len(got.Reviews) != 1 {
		t.Errorf("GetBatch = %+v", got)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	s := New()
	_, err := s.GetBatch(context.Background(), "missing")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveBatchReplacesExisting(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := testBatch("b1", "2024-06-01T10:00:00")
	if err := s.SaveBatch(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.AppName = "Babbel"
	if err := s.SaveBatch(ctx, b); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AppName != "Babbel" {
		t.Errorf("AppName = %q, want Babbel", got.AppName)
	}
}

func TestListBatchesNewestFirstWithoutReviews(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.SaveBatch(ctx, testBatch("old", "2024-05-01T00:00:00"))
	s.SaveBatch(ctx, testBatch("new", "2024-06-01T00:00:00"))

	batches, err := s.ListBatches(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 || batches[0].ID != "new" || batches[1].ID != "old" {
		t.Fatalf("order wrong: %+v", batches)
	}
	if batches[0].Reviews != nil {
		t.Error("ListBatches should not carry reviews")
	}

	limited, err := s.ListBatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "new" {
		t.Errorf("limit ignored: %+v", limited)
	}
}

func TestLoadAllCarriesReviews(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.SaveBatch(ctx, testBatch("b1", "2024-06-01T00:00:00"))

	batches, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || len(batches[0].Reviews) != 1 {
		t.Fatalf("LoadAll = %+v", batches)
	}
}

func TestSaveBatchCopiesInput(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := testBatch("b1", "2024-06-01T00:00:00")
	if err := s.SaveBatch(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.Reviews[0].Content = "mutated after save"

	got, _ := s.GetBatch(ctx, "b1")
	if got.Reviews[0].Content != "works fine" {
		t.Error("stored batch should not share memory with the caller")
	}
}

func TestSaveBatchCopiesReviewEnrichment(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := testBatch("b1", "2024-06-01T00:00:00")
	b.Reviews[0].CategoryScores = map[string]float64{"features": 0.6}
	b.Reviews[0].KeywordsFound = []string{"feature"}
	if err := s.SaveBatch(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.Reviews[0].CategoryScores["features"] = 0
	b.Reviews[0].KeywordsFound[0] = "mutated"

	got, err := s.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Reviews[0].CategoryScores["features"] != 0.6 {
		t.Errorf("CategoryScores shared with the caller: %v", got.Reviews[0].CategoryScores)
	}
	if got.Reviews[0].KeywordsFound[0] != "feature" {
		t.Errorf("KeywordsFound shared with the caller: %v", got.Reviews[0].KeywordsFound)
	}
}
