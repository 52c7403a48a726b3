package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/driftline/revmine/pkg/revmine/internalerr"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/store"
)

// sqliteStore implements store.Store on a SQLite database.
type sqliteStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite batch archive at path with WAL mode
// enabled.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	app_name TEXT NOT NULL,
	platform TEXT NOT NULL,
	scraped_at TEXT,
	total_scraped INTEGER DEFAULT 0,
	total_processed INTEGER DEFAULT 0,
	processing_stats TEXT
);

CREATE TABLE IF NOT EXISTS reviews (
	batch_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	review_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY(batch_id, position),
	FOREIGN KEY(batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_reviews_batch ON reviews(batch_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveBatch writes the batch and its reviews in one transaction,
// replacing any earlier copy under the same ID.
func (s *sqliteStore) SaveBatch(ctx context.Context, b review.Batch) error {
	stats, err := json.Marshal(b.ProcessingStats)
	if err != nil {
		return fmt.Errorf("marshal processing stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, app_name, platform, scraped_at, total_scraped, total_processed, processing_stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			app_name = excluded.app_name,
			platform = excluded.platform,
			scraped_at = excluded.scraped_at,
			total_scraped = excluded.total_scraped,
			total_processed = excluded.total_processed,
			processing_stats = excluded.processing_stats`,
		b.ID, b.AppName, b.Platform, b.ScrapedAt, b.TotalScraped, b.TotalProcessed, string(stats))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE batch_id = ?", b.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO reviews (batch_id, position, review_id, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range b.Reviews {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal review %s: %w", r.ReviewID, err)
		}
		if _, err := stmt.ExecContext(ctx, b.ID, i, r.ReviewID, string(payload)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBatch loads one batch with its reviews in stored order.
func (s *sqliteStore) GetBatch(ctx context.Context, id string) (review.Batch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, app_name, platform, scraped_at, total_scraped, total_processed, processing_stats
		FROM batches WHERE id = ?`, id)

	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return review.Batch{}, fmt.Errorf("%w: batch %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return review.Batch{}, err
	}

	reviews, err := s.loadReviews(ctx, b.ID)
	if err != nil {
		return review.Batch{}, err
	}
	b.Reviews = reviews
	return b, nil
}

// ListBatches returns batch metadata without reviews, newest first.
func (s *sqliteStore) ListBatches(ctx context.Context, limit int) ([]review.Batch, error) {
	query := `
		SELECT id, app_name, platform, scraped_at, total_scraped, total_processed, processing_stats
		FROM batches ORDER BY scraped_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []review.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// LoadAll returns every stored batch with reviews, newest first.
func (s *sqliteStore) LoadAll(ctx context.Context) ([]review.Batch, error) {
	batches, err := s.ListBatches(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		reviews, err := s.loadReviews(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Reviews = reviews
	}
	return batches, nil
}

func (s *sqliteStore) loadReviews(ctx context.Context, batchID string) ([]review.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM reviews WHERE batch_id = ? ORDER BY position", batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []review.Review
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r review.Review
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("unmarshal review in batch %s: %w", batchID, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (review.Batch, error) {
	var b review.Batch
	var stats sql.NullString
	err := row.Scan(&b.ID, &b.AppName, &b.Platform, &b.ScrapedAt, &b.TotalScraped, &b.TotalProcessed, &stats)
	if err != nil {
		return review.Batch{}, err
	}
	if stats.Valid && stats.String != "" {
		if err := json.Unmarshal([]byte(stats.String), &b.ProcessingStats); err != nil {
			return review.Batch{}, fmt.Errorf("unmarshal processing stats for %s: %w", b.ID, err)
		}
	}
	return b, nil
}
