// Package revmine is the review mining facade: it wires the cleaning,
// deduplication, classification, and scoring stages into a single
// batch pipeline over archived review data.
package revmine

import (
	"context"
	"fmt"
	"log"

	"github.com/driftline/revmine/pkg/revmine/classify"
	"github.com/driftline/revmine/pkg/revmine/clean"
	"github.com/driftline/revmine/pkg/revmine/dedup"
	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/report"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/store"
)

// Miner runs the full review processing pipeline.
type Miner struct {
	cleaner    *clean.Cleaner
	dedup      *dedup.Engine
	classifier *classify.Classifier
	scorer     *dedup.Scorer
	store      store.Store
	logger     *log.Logger
	minQuality float64
}

// Options configures a Miner instance. Nil components fall back to
// defaults; Store and Logger may stay nil.
type Options struct {
	Cleaner         *clean.Cleaner
	Dedup           *dedup.Engine
	Classifier      *classify.Classifier
	Store           store.Store
	Logger          *log.Logger
	MinQualityScore float64
}

// New creates a Miner with the given dependencies.
func New(opts Options) *Miner {
	if opts.Cleaner == nil {
		opts.Cleaner = clean.NewCleaner(clean.NewValidator(0, 0), opts.Logger)
	}
	if opts.Dedup == nil {
		opts.Dedup = dedup.NewEngine(0, nil, opts.Logger)
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.NewClassifier(nil, 0, nil, opts.Logger)
	}
	minQuality := opts.MinQualityScore
	if minQuality <= 0 {
		minQuality = review.DefaultMinQualityScore
	}
	return &Miner{
		cleaner:    opts.Cleaner,
		dedup:      opts.Dedup,
		classifier: opts.Classifier,
		scorer:     dedup.NewScorer(),
		store:      opts.Store,
		logger:     opts.Logger,
		minQuality: minQuality,
	}
}

// Close releases the batch archive, if one is attached.
func (m *Miner) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Process runs a batch through cleaning, deduplication,
// classification, and quality scoring. The input batch is not
// modified; the returned batch carries the surviving reviews and the
// per-stage counts under processing_stats.
func (m *Miner) Process(b review.Batch) (review.Batch, error) {
	if len(b.Reviews) == 0 {
		return review.Batch{}, fmt.Errorf("%w: batch %s has no reviews", internalerr.ErrEmptyBatch, b.ID)
	}

	out := b
	stats := map[string]int{"original_count": len(b.Reviews)}

	cleaned, removed := m.cleaner.CleanBatch(b.Reviews)
	stats["cleaned_count"] = len(cleaned)
	m.logf("batch %s: cleaned %d reviews, rejected %d", b.ID, len(cleaned), removed)

	deduped, passStats := m.dedup.Deduplicate(cleaned)
	stats["deduplicated_count"] = len(deduped)
	m.logf("batch %s: %d reviews after dedup (removed %d)", b.ID, len(deduped), passStats.Removed())

	classified := m.classifier.ClassifyBatch(deduped)
	stats["classified_count"] = len(classified)

	processedAt := review.Now()
	for i := range classified {
		classified[i].QualityScore = m.scorer.Score(classified[i])
		classified[i].ProcessedAt = processedAt
	}
	stats["final_count"] = len(classified)

	out.Reviews = classified
	out.TotalProcessed = len(classified)
	out.ProcessingStats = stats
	return out, nil
}

// Archive persists a processed batch to the attached store.
func (m *Miner) Archive(ctx context.Context, b review.Batch) error {
	if m.store == nil {
		return internalerr.ErrStoreUnavailable
	}
	return m.store.SaveBatch(ctx, b)
}

// ArchivedBatches loads every stored batch, newest first.
func (m *Miner) ArchivedBatches(ctx context.Context) ([]review.Batch, error) {
	if m.store == nil {
		return nil, internalerr.ErrStoreUnavailable
	}
	return m.store.LoadAll(ctx)
}

// Report builds the cross-batch analysis report.
func (m *Miner) Report(batches []review.Batch) (report.Report, error) {
	gen := report.NewGenerator()
	gen.MinQualityScore = m.minQuality
	return gen.Generate(batches)
}

func (m *Miner) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
