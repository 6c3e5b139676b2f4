package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tripflow/flightfinder/internal/resolver"
	"github.com/tripflow/flightfinder/pkg/logger"
)

// ResolutionStorage persists resolved place-to-code mappings. It backs
// the resolver's cache: a miss or storage failure only costs a re-run of
// the resolver chain.
type ResolutionStorage struct {
	db     *sql.DB
	ttl    time.Duration
	logger *logger.Logger
}

// ResolutionRecord is a stored resolution row.
type ResolutionRecord struct {
	Place      string    `json:"place"`
	Code       string    `json:"code"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// NewResolutionStorage creates the resolution cache storage. ttl of zero
// means entries never expire.
func NewResolutionStorage(db *sql.DB, ttl time.Duration, log *logger.Logger) (*ResolutionStorage, error) {
	storage := &ResolutionStorage{
		db:     db,
		ttl:    ttl,
		logger: log.Named("sqlite-resolutions"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize resolution storage: %w", err)
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *ResolutionStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS resolutions (
			place TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			confidence REAL NOT NULL,
			source TEXT NOT NULL,
			candidates TEXT NOT NULL DEFAULT 'null',
			resolved_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create resolutions table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_resolutions_resolved_at ON resolutions(resolved_at)`)
	if err != nil {
		return fmt.Errorf("failed to create resolutions index: %w", err)
	}

	return nil
}

// Lookup implements resolver.Cache. Expired entries are reported as
// misses and cleaned up lazily.
func (s *ResolutionStorage) Lookup(ctx context.Context, place string) (resolver.Result, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT code, confidence, source, candidates, resolved_at FROM resolutions WHERE place = ?`,
		place,
	)

	var (
		record     ResolutionRecord
		candidates string
		resolvedAt string
	)
	err := row.Scan(&record.Code, &record.Confidence, &record.Source, &candidates, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return resolver.Result{}, false, nil
	}
	if err != nil {
		return resolver.Result{}, false, fmt.Errorf("failed to query resolution: %w", err)
	}

	record.ResolvedAt, err = time.Parse(time.RFC3339, resolvedAt)
	if err != nil {
		return resolver.Result{}, false, fmt.Errorf("failed to parse resolved_at: %w", err)
	}

	if s.ttl > 0 && time.Since(record.ResolvedAt) > s.ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM resolutions WHERE place = ?`, place); err != nil {
			s.logger.Warn("Failed to evict expired resolution", logger.Error(err))
		}
		return resolver.Result{}, false, nil
	}

	result := resolver.Result{
		Code:       record.Code,
		Confidence: record.Confidence,
		Source:     resolver.Source(record.Source),
	}
	if err := json.Unmarshal([]byte(candidates), &result.Candidates); err != nil {
		return resolver.Result{}, false, fmt.Errorf("failed to parse candidates: %w", err)
	}

	return result, true, nil
}

// Store implements resolver.Cache. Candidates are stored as JSON so a
// cache hit returns the same Result the resolver chain produced.
func (s *ResolutionStorage) Store(ctx context.Context, place string, result resolver.Result) error {
	candidates, err := json.Marshal(result.Candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolutions (place, code, confidence, source, candidates, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(place) DO UPDATE SET
			code = excluded.code,
			confidence = excluded.confidence,
			source = excluded.source,
			candidates = excluded.candidates,
			resolved_at = excluded.resolved_at`,
		place,
		result.Code,
		result.Confidence,
		string(result.Source),
		string(candidates),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store resolution: %w", err)
	}
	return nil
}

// Purge removes every stored resolution. Used by the explicit dataset
// refresh path: stale mappings must not outlive the table they came from.
func (s *ResolutionStorage) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`); err != nil {
		return fmt.Errorf("failed to purge resolutions: %w", err)
	}
	return nil
}
