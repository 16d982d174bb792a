package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cineloop/cineloop/cmd/cineloop/letters"
	"github.com/cineloop/cineloop/common/db"
	"github.com/cineloop/cineloop/common/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateMovie signals that the movie already exists in the chain
// (unique constraint on tmdb_id). The submitter lost a content race, not
// hit a server fault.
var ErrDuplicateMovie = errors.New("movie already exists in the chain")

// ErrStaleTail signals that the chain tail moved between the caller's
// snapshot read and the append. Retryable against the fresh tail.
var ErrStaleTail = errors.New("chain tail changed during submission")

// Advisory lock key serializing all chain appends. Every writer takes this
// transaction-scoped lock, so position assignment and the continuity
// re-check happen against the committed tail, never a stale one.
const chainAppendLockID = int64(0x63696e656c6f6f) // "cineloo"

const uniqueViolationCode = "23505"

// ChainRepository handles database operations for the movie chain
type ChainRepository struct {
	db *db.DB
}

// NewChainRepository creates a new chain repository
func NewChainRepository(database *db.DB) *ChainRepository {
	return &ChainRepository{db: database}
}

// EnsureSchema creates the chain table and its constraints if missing.
// Wired as the bootstrap DB init hook.
func EnsureSchema(database *db.DB) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS chain_entries (
			id          BIGSERIAL PRIMARY KEY,
			tmdb_id     BIGINT NOT NULL,
			title       TEXT NOT NULL,
			username    TEXT NOT NULL,
			fid         BIGINT NOT NULL,
			rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
			poster_path TEXT,
			position    INTEGER NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT chain_entries_tmdb_id_key UNIQUE (tmdb_id),
			CONSTRAINT chain_entries_position_key UNIQUE (position)
		)
	`

	if _, err := database.Exec(context.Background(), ddl); err != nil {
		return fmt.Errorf("failed to create chain_entries table: %w", err)
	}

	return nil
}

// List retrieves the full chain ordered by position ascending
func (r *ChainRepository) List(ctx context.Context) ([]models.ChainEntry, error) {
	query := `
		SELECT id, tmdb_id, title, username, fid, rating, poster_path, position, created_at
		FROM chain_entries
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chain entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ChainEntry
	for rows.Next() {
		var entry models.ChainEntry
		err := rows.Scan(
			&entry.ID,
			&entry.TMDBID,
			&entry.Title,
			&entry.Username,
			&entry.Fid,
			&entry.Rating,
			&entry.PosterPath,
			&entry.Position,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chain entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries in the chain
func (r *ChainRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chain_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chain entries: %w", err)
	}

	return count, nil
}

// Tail returns the entry with the highest position, or nil for an empty chain
func (r *ChainRepository) Tail(ctx context.Context) (*models.ChainEntry, error) {
	query := `
		SELECT id, tmdb_id, title, username, fid, rating, poster_path, position, created_at
		FROM chain_entries
		ORDER BY position DESC
		LIMIT 1
	`

	entry := &models.ChainEntry{}
	err := r.db.QueryRow(ctx, query).Scan(
		&entry.ID,
		&entry.TMDBID,
		&entry.Title,
		&entry.Username,
		&entry.Fid,
		&entry.Rating,
		&entry.PosterPath,
		&entry.Position,
		&entry.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chain tail: %w", err)
	}

	return entry, nil
}

// Append inserts candidate as the new tail, assigning the next position.
//
// The whole operation runs in a single transaction holding an advisory
// lock, making the store the authoritative serialization point: the tail
// is re-read and letter continuity re-validated against it, so a snapshot
// that went stale between the caller's rule check and this write surfaces
// as ErrStaleTail instead of an invalid link. A concurrent insert of the
// same movie surfaces as ErrDuplicateMovie via the tmdb_id constraint.
func (r *ChainRepository) Append(ctx context.Context, candidate *models.CandidateMovie, user models.User) (*models.ChainEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, chainAppendLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire chain lock: %w", err)
	}

	var tailTitle string
	var tailPosition int
	err = tx.QueryRow(ctx, `
		SELECT title, position
		FROM chain_entries
		ORDER BY position DESC
		LIMIT 1
	`).Scan(&tailTitle, &tailPosition)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read chain tail: %w", err)
	}

	if tailPosition > 0 {
		first, firstOK := letters.First(candidate.Title)
		required, requiredOK := letters.Last(tailTitle)
		if requiredOK && (!firstOK || first != required) {
			return nil, ErrStaleTail
		}
	}

	entry := &models.ChainEntry{
		TMDBID:     candidate.TMDBID,
		Title:      candidate.Title,
		Username:   user.Username,
		Fid:        user.Fid,
		Rating:     candidate.Rating,
		PosterPath: candidate.PosterPath,
		Position:   tailPosition + 1,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO chain_entries (tmdb_id, title, username, fid, rating, poster_path, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		entry.TMDBID,
		entry.Title,
		entry.Username,
		entry.Fid,
		entry.Rating,
		entry.PosterPath,
		entry.Position,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to insert chain entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit chain entry: %w", err)
	}

	return entry, nil
}

// mapUniqueViolation converts Postgres unique-violation errors into the
// repository's sentinel errors. Returns nil for any other error.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}

	if pgErr.ConstraintName == "chain_entries_position_key" {
		// Two writers raced on the same position; shouldn't happen under
		// the advisory lock, but the constraint is the final arbiter
		return ErrStaleTail
	}

	return ErrDuplicateMovie
}
