package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cineloop/cineloop/cmd/cineloop/repository"
	"github.com/cineloop/cineloop/cmd/cineloop/rules"
	"github.com/cineloop/cineloop/common/clients"
	"github.com/cineloop/cineloop/common/logger"
	"github.com/cineloop/cineloop/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	movie *models.CandidateMovie
	err   error
}

func (f *fakeResolver) SearchMovie(ctx context.Context, rawTitle string) (*models.CandidateMovie, error) {
	return f.movie, f.err
}

type fakeStore struct {
	chain     []models.ChainEntry
	listErr   error
	appendErr error

	appended []*models.CandidateMovie
}

func (f *fakeStore) List(ctx context.Context) ([]models.ChainEntry, error) {
	return f.chain, f.listErr
}

func (f *fakeStore) Append(ctx context.Context, candidate *models.CandidateMovie, user models.User) (*models.ChainEntry, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.appended = append(f.appended, candidate)
	return &models.ChainEntry{
		ID:        int64(len(f.chain) + 1),
		TMDBID:    candidate.TMDBID,
		Title:     candidate.Title,
		Fid:       user.Fid,
		Username:  user.Username,
		Rating:    candidate.Rating,
		Position:  len(f.chain) + 1,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type fakePublisher struct {
	published  []string
	cached     []string
	publishErr error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, channel, message string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, message)
	return nil
}

func (f *fakePublisher) SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error {
	f.cached = append(f.cached, value)
	return nil
}

var testUser = models.User{Fid: 42, Username: "carol"}

func newSubmissionService(resolver MetadataResolver, store ChainStore, events EventPublisher) *SubmissionService {
	return NewSubmissionService(resolver, store, events, logger.New("error", "json"))
}

func TestSubmit_AcceptsAndPublishes(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	store := &fakeStore{}
	events := &fakePublisher{}
	svc := newSubmissionService(resolver, store, events)

	outcome, err := svc.Submit(context.Background(), "inception", testUser)
	require.NoError(t, err)

	require.True(t, outcome.Verdict.Accepted)
	require.NotNil(t, outcome.Entry)
	assert.Equal(t, int64(27205), outcome.Entry.TMDBID)
	assert.Equal(t, 1, outcome.Entry.Position)
	assert.Equal(t, testUser.Fid, outcome.Entry.Fid)

	require.Len(t, events.published, 1)
	require.Len(t, events.cached, 1)
	assert.JSONEq(t, events.published[0], events.cached[0])
}

func TestSubmit_NotFoundIsARejectionNotAnError(t *testing.T) {
	resolver := &fakeResolver{err: clients.ErrMovieNotFound}
	store := &fakeStore{}
	svc := newSubmissionService(resolver, store, nil)

	outcome, err := svc.Submit(context.Background(), "no such movie", testUser)
	require.NoError(t, err)

	assert.False(t, outcome.Verdict.Accepted)
	assert.Equal(t, rules.ReasonNotFound, outcome.Verdict.Reason)
	assert.Nil(t, outcome.Entry)
}

func TestSubmit_TransportFailureWrapsMetadataUnavailable(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("connection refused")}
	svc := newSubmissionService(resolver, &fakeStore{}, nil)

	_, err := svc.Submit(context.Background(), "Inception", testUser)
	assert.ErrorIs(t, err, ErrMetadataUnavailable)
}

func TestSubmit_RejectionStopsBeforeAppend(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 2, Title: "The Matrix"}}
	store := &fakeStore{
		chain: []models.ChainEntry{
			{TMDBID: 1, Title: "Inception", Fid: 7, Position: 1, CreatedAt: time.Now().Add(-48 * time.Hour)},
		},
	}
	svc := newSubmissionService(resolver, store, nil)

	outcome, err := svc.Submit(context.Background(), "The Matrix", testUser)
	require.NoError(t, err)

	assert.Equal(t, rules.ReasonLetterMismatch, outcome.Verdict.Reason)
	assert.Equal(t, byte('n'), outcome.Verdict.Required)
	assert.Empty(t, store.appended, "rejected submissions must not reach the store")
}

func TestSubmit_DuplicateRaceBecomesDuplicateVerdict(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	store := &fakeStore{appendErr: repository.ErrDuplicateMovie}
	svc := newSubmissionService(resolver, store, nil)

	outcome, err := svc.Submit(context.Background(), "Inception", testUser)
	require.NoError(t, err)

	assert.False(t, outcome.Verdict.Accepted)
	assert.Equal(t, rules.ReasonDuplicate, outcome.Verdict.Reason)
}

func TestSubmit_StaleTailBecomesConflictVerdict(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	store := &fakeStore{appendErr: repository.ErrStaleTail}
	svc := newSubmissionService(resolver, store, nil)

	outcome, err := svc.Submit(context.Background(), "Inception", testUser)
	require.NoError(t, err)

	assert.False(t, outcome.Verdict.Accepted)
	assert.Equal(t, rules.ReasonConflict, outcome.Verdict.Reason)
}

func TestSubmit_StoreFaultIsAnError(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	store := &fakeStore{appendErr: errors.New("connection reset")}
	svc := newSubmissionService(resolver, store, nil)

	_, err := svc.Submit(context.Background(), "Inception", testUser)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMetadataUnavailable)
}

func TestSubmit_PublishFailureDoesNotFailSubmission(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	store := &fakeStore{}
	events := &fakePublisher{publishErr: errors.New("redis down")}
	svc := newSubmissionService(resolver, store, events)

	outcome, err := svc.Submit(context.Background(), "Inception", testUser)
	require.NoError(t, err)
	assert.True(t, outcome.Verdict.Accepted)
}

func TestSubmit_NilPublisherIsAllowed(t *testing.T) {
	resolver := &fakeResolver{movie: &models.CandidateMovie{TMDBID: 27205, Title: "Inception"}}
	svc := newSubmissionService(resolver, &fakeStore{}, nil)

	outcome, err := svc.Submit(context.Background(), "Inception", testUser)
	require.NoError(t, err)
	assert.True(t, outcome.Verdict.Accepted)
}
