package rules

import (
	"testing"
	"time"

	"github.com/cineloop/cineloop/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.User{Fid: 101, Username: "alice"}
	bob   = models.User{Fid: 202, Username: "bob"}
)

func entry(tmdbID int64, title string, fid int64, createdAt time.Time) models.ChainEntry {
	return models.ChainEntry{
		TMDBID:    tmdbID,
		Title:     title,
		Fid:       fid,
		CreatedAt: createdAt,
	}
}

func candidate(tmdbID int64, title string) *models.CandidateMovie {
	return &models.CandidateMovie{TMDBID: tmdbID, Title: title}
}

func TestEvaluate_EmptyChainAcceptsAnyTitle(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	v := Evaluate(nil, candidate(1, "Zodiac"), alice, now)

	require.True(t, v.Accepted)
	assert.Empty(t, v.Reason)
}

func TestEvaluate_NilCandidateIsNotFound(t *testing.T) {
	now := time.Now()

	v := Evaluate(nil, nil, alice, now)

	require.False(t, v.Accepted)
	assert.Equal(t, ReasonNotFound, v.Reason)
}

func TestEvaluate_LetterContinuity(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	chain := []models.ChainEntry{
		entry(1, "Inception", bob.Fid, yesterday), // ends in 'n'
	}

	t.Run("matching letter accepted", func(t *testing.T) {
		v := Evaluate(chain, candidate(2, "No Country for Old Men"), alice, now)
		require.True(t, v.Accepted)
	})

	t.Run("case insensitive match", func(t *testing.T) {
		v := Evaluate(chain, candidate(2, "napoleon"), alice, now)
		require.True(t, v.Accepted)
	})

	t.Run("leading punctuation and digits skipped", func(t *testing.T) {
		// First significant letter of "9 Nights" is 'n'
		v := Evaluate(chain, candidate(2, "9 Nights"), alice, now)
		require.True(t, v.Accepted)
	})

	t.Run("mismatch rejected with required letter", func(t *testing.T) {
		v := Evaluate(chain, candidate(2, "The Matrix"), alice, now)
		require.False(t, v.Accepted)
		assert.Equal(t, ReasonLetterMismatch, v.Reason)
		assert.Equal(t, byte('n'), v.Required)
	})

	t.Run("tail punctuation ignored for required letter", func(t *testing.T) {
		punctChain := []models.ChainEntry{
			entry(1, "What's Up, Doc?", bob.Fid, yesterday), // ends in 'c'
		}
		v := Evaluate(punctChain, candidate(2, "Casablanca"), alice, now)
		require.True(t, v.Accepted)
	})
}

func TestEvaluate_UnlinkableTitle(t *testing.T) {
	now := time.Now()

	// A title with no letters is rejected even against an empty chain,
	// because it could never establish a required letter for the next player
	v := Evaluate(nil, candidate(1, "1917"), alice, now)

	require.False(t, v.Accepted)
	assert.Equal(t, ReasonUnlinkable, v.Reason)
}

func TestEvaluate_LetterlessTailAcceptsAnything(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	chain := []models.ChainEntry{
		entry(1, "300", bob.Fid, now.Add(-24*time.Hour)),
	}

	v := Evaluate(chain, candidate(2, "Zodiac"), alice, now)

	require.True(t, v.Accepted)
}

func TestEvaluate_DuplicateMovie(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	chain := []models.ChainEntry{
		entry(1, "Inception", bob.Fid, yesterday),  // ends in 'n'
		entry(2, "Napoleon", alice.Fid, yesterday), // ends in 'n'
	}

	v := Evaluate(chain, candidate(2, "Napoleon"), bob, now)

	require.False(t, v.Accepted)
	assert.Equal(t, ReasonDuplicate, v.Reason)
}

func TestEvaluate_LetterMismatchBeatsDuplicate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	chain := []models.ChainEntry{
		entry(1, "The Matrix", bob.Fid, yesterday), // ends in 'x'
		entry(2, "X-Men", alice.Fid, yesterday),    // ends in 'n'
	}

	// "The Matrix" is both a duplicate and a letter mismatch ('t' != 'n');
	// continuity is checked first so its reason wins
	v := Evaluate(chain, candidate(1, "The Matrix"), bob, now)

	require.False(t, v.Accepted)
	assert.Equal(t, ReasonLetterMismatch, v.Reason)
	assert.Equal(t, byte('n'), v.Required)
}

func TestEvaluate_DailyLimit(t *testing.T) {
	now := time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC)

	t.Run("same UTC day rejected", func(t *testing.T) {
		chain := []models.ChainEntry{
			entry(1, "Inception", alice.Fid, time.Date(2026, 8, 28, 0, 15, 0, 0, time.UTC)),
		}
		v := Evaluate(chain, candidate(2, "Napoleon"), alice, now)
		require.False(t, v.Accepted)
		assert.Equal(t, ReasonDailyLimit, v.Reason)
	})

	t.Run("previous day accepted", func(t *testing.T) {
		chain := []models.ChainEntry{
			entry(1, "Inception", alice.Fid, time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)),
		}
		v := Evaluate(chain, candidate(2, "Napoleon"), alice, now)
		require.True(t, v.Accepted)
	})

	t.Run("other user unaffected", func(t *testing.T) {
		chain := []models.ChainEntry{
			entry(1, "Inception", alice.Fid, now.Add(-time.Hour)),
		}
		v := Evaluate(chain, candidate(2, "Napoleon"), bob, now)
		require.True(t, v.Accepted)
	})

	t.Run("non-UTC timestamps compared on UTC days", func(t *testing.T) {
		// 2026-08-28 20:30 -05:00 is 2026-08-29 01:30 UTC: a different UTC
		// day than now, so the limit does not apply
		loc := time.FixedZone("UTC-5", -5*60*60)
		chain := []models.ChainEntry{
			entry(1, "Inception", alice.Fid, time.Date(2026, 8, 28, 20, 30, 0, 0, loc)),
		}
		v := Evaluate(chain, candidate(2, "Napoleon"), alice, now)
		require.True(t, v.Accepted)
	})
}

func TestEvaluate_DuplicateBeatsDailyLimit(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	chain := []models.ChainEntry{
		entry(1, "Napoleon", alice.Fid, now.Add(-time.Hour)), // ends in 'n'
	}

	// Alice already played today AND resubmits the same movie; uniqueness
	// is checked before the daily limit
	v := Evaluate(chain, candidate(1, "Napoleon"), alice, now)

	require.False(t, v.Accepted)
	assert.Equal(t, ReasonDuplicate, v.Reason)
}

func TestRequiredLetter(t *testing.T) {
	t.Run("empty chain has no constraint", func(t *testing.T) {
		_, ok := RequiredLetter(nil)
		assert.False(t, ok)
	})

	t.Run("tail's last letter", func(t *testing.T) {
		chain := []models.ChainEntry{
			entry(1, "Inception", alice.Fid, time.Now()),
			entry(2, "Napoleon Dynamite", bob.Fid, time.Now()),
		}
		got, ok := RequiredLetter(chain)
		require.True(t, ok)
		assert.Equal(t, byte('e'), got)
	})

	t.Run("letterless tail has no constraint", func(t *testing.T) {
		chain := []models.ChainEntry{
			entry(1, "300", alice.Fid, time.Now()),
		}
		_, ok := RequiredLetter(chain)
		assert.False(t, ok)
	})
}
