package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cineloop/cineloop/cmd/cineloop/repository"
	"github.com/cineloop/cineloop/cmd/cineloop/rules"
	"github.com/cineloop/cineloop/common/clients"
	"github.com/cineloop/cineloop/common/logger"
	"github.com/cineloop/cineloop/common/models"
)

const (
	// ChainEventsChannel carries accepted entries to the fanout service
	ChainEventsChannel = "chain:events"

	// LatestEntryKey caches the most recent accepted entry for replay
	// to newly connected fanout viewers
	LatestEntryKey = "chain:latest"

	latestEntryTTL = 24 * time.Hour
)

// ErrMetadataUnavailable wraps transport failures from the metadata source.
// Distinct from not-found: safe to retry, not the user's fault.
var ErrMetadataUnavailable = errors.New("movie lookup unavailable")

// MetadataResolver resolves a raw title to a candidate movie
type MetadataResolver interface {
	SearchMovie(ctx context.Context, rawTitle string) (*models.CandidateMovie, error)
}

// ChainStore is the durable ordered chain log
type ChainStore interface {
	List(ctx context.Context) ([]models.ChainEntry, error)
	Append(ctx context.Context, candidate *models.CandidateMovie, user models.User) (*models.ChainEntry, error)
}

// EventPublisher fans accepted entries out to live viewers
type EventPublisher interface {
	PublishEvent(ctx context.Context, channel string, message string) error
	SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error
}

// SubmissionService coordinates a submission: resolve metadata, evaluate the
// chain rules against a snapshot, then append through the store's
// serialization point. Stateless; safe for concurrent use.
type SubmissionService struct {
	resolver MetadataResolver
	store    ChainStore
	events   EventPublisher
	log      *logger.Logger
}

// NewSubmissionService creates a new submission service. events may be nil
// to disable live fan-out.
func NewSubmissionService(resolver MetadataResolver, store ChainStore, events EventPublisher, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		resolver: resolver,
		store:    store,
		events:   events,
		log:      log,
	}
}

// SubmitOutcome is the result of a submission attempt. Entry is set only
// when the verdict accepted.
type SubmitOutcome struct {
	Entry   *models.ChainEntry
	Verdict rules.Verdict
}

// Submit runs the full submission protocol for one candidate title.
//
// Validation rejections (including race losses surfaced by the store) come
// back as a rejecting Verdict with a nil error. A non-nil error means an
// infrastructure fault: ErrMetadataUnavailable for the metadata source,
// anything else for the store.
func (s *SubmissionService) Submit(ctx context.Context, rawTitle string, user models.User) (*SubmitOutcome, error) {
	// 1. Resolve metadata. No lock is held across this network call.
	candidate, err := s.resolver.SearchMovie(ctx, rawTitle)
	if err != nil {
		if errors.Is(err, clients.ErrMovieNotFound) {
			return &SubmitOutcome{Verdict: rules.Reject(rules.ReasonNotFound)}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	// 2. Read one consistent snapshot of the chain.
	snapshot, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain snapshot: %w", err)
	}

	// 3. Evaluate the rules against the snapshot.
	verdict := rules.Evaluate(snapshot, candidate, user, time.Now())
	if !verdict.Accepted {
		s.log.Info("submission rejected",
			"fid", user.Fid,
			"title", candidate.Title,
			"reason", verdict.Reason,
		)
		return &SubmitOutcome{Verdict: verdict}, nil
	}

	// 4. Append through the store. The snapshot check above is optimistic;
	// the store re-validates under its own serialization and its verdict
	// is the authoritative one.
	entry, err := s.store.Append(ctx, candidate, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateMovie):
			s.log.Info("submission lost duplicate race",
				"fid", user.Fid,
				"tmdb_id", candidate.TMDBID,
			)
			return &SubmitOutcome{Verdict: rules.Reject(rules.ReasonDuplicate)}, nil
		case errors.Is(err, repository.ErrStaleTail):
			s.log.Info("submission raced a moving tail",
				"fid", user.Fid,
				"tmdb_id", candidate.TMDBID,
			)
			return &SubmitOutcome{Verdict: rules.Reject(rules.ReasonConflict)}, nil
		default:
			return nil, fmt.Errorf("failed to append chain entry: %w", err)
		}
	}

	s.log.Info("chain entry accepted",
		"fid", user.Fid,
		"tmdb_id", entry.TMDBID,
		"title", entry.Title,
		"position", entry.Position,
	)

	s.publishEntry(ctx, entry)

	return &SubmitOutcome{Entry: entry, Verdict: rules.Accept()}, nil
}

// publishEntry pushes the accepted entry to live viewers. Best effort: the
// entry is already durable, so publish failures are logged and swallowed.
func (s *SubmissionService) publishEntry(ctx context.Context, entry *models.ChainEntry) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn("failed to marshal chain event", "error", err)
		return
	}

	if err := s.events.PublishEvent(ctx, ChainEventsChannel, string(payload)); err != nil {
		s.log.Warn("failed to publish chain event", "error", err)
	}

	if err := s.events.SetWithExpiry(ctx, LatestEntryKey, string(payload), latestEntryTTL); err != nil {
		s.log.Warn("failed to cache latest chain entry", "error", err)
	}
}
