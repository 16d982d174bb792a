// Package rules implements the chain rule engine: the pure decision logic
// that accepts or rejects a candidate movie against a snapshot of the chain.
// It performs no I/O and never blocks; rejections are ordinary return values.
package rules

import (
	"time"

	"github.com/cineloop/cineloop/cmd/cineloop/letters"
	"github.com/cineloop/cineloop/common/models"
)

// Reason is a stable machine-readable rejection code
type Reason string

const (
	// ReasonNotFound: the metadata source had no usable match for the input
	ReasonNotFound Reason = "not_found"

	// ReasonLetterMismatch: the candidate's first significant letter does
	// not equal the tail entry's last significant letter
	ReasonLetterMismatch Reason = "letter_mismatch"

	// ReasonUnlinkable: the candidate title has no ASCII letters at all,
	// so it can neither satisfy nor establish chain continuity
	ReasonUnlinkable Reason = "unlinkable_title"

	// ReasonDuplicate: the movie already appears in the chain
	ReasonDuplicate Reason = "duplicate"

	// ReasonDailyLimit: the user already has an accepted entry today (UTC)
	ReasonDailyLimit Reason = "daily_limit_reached"

	// ReasonConflict: a concurrent submission won the race. Produced by the
	// submission coordinator when the store rejects a write, never by
	// Evaluate itself. Retryable with fresh input.
	ReasonConflict Reason = "conflict"
)

// Verdict is the outcome of evaluating one candidate against the chain
type Verdict struct {
	Accepted bool
	Reason   Reason // empty when accepted
	Required byte   // required first letter, set for letter_mismatch
}

// Accept returns an accepting verdict
func Accept() Verdict {
	return Verdict{Accepted: true}
}

// Reject returns a rejecting verdict with the given reason
func Reject(reason Reason) Verdict {
	return Verdict{Reason: reason}
}

// RejectLetter returns a letter-mismatch rejection carrying the letter the
// candidate was required to start with
func RejectLetter(required byte) Verdict {
	return Verdict{Reason: ReasonLetterMismatch, Required: required}
}

// Evaluate decides whether candidate may be appended to the chain by user.
// chain must be a single consistent snapshot ordered by position ascending;
// now supplies the clock for the daily limit (compared on UTC days).
//
// Rules run in precedence order and the first failure wins, so the caller
// surfaces exactly one reason: existence, letter continuity, uniqueness,
// daily limit.
func Evaluate(chain []models.ChainEntry, candidate *models.CandidateMovie, user models.User, now time.Time) Verdict {
	// 1. Existence
	if candidate == nil {
		return Reject(ReasonNotFound)
	}

	// 2. Letter-chain continuity
	first, ok := letters.First(candidate.Title)
	if !ok {
		// A title with zero letters can never link into the chain
		return Reject(ReasonUnlinkable)
	}
	if len(chain) > 0 {
		tail := chain[len(chain)-1]
		if required, ok := letters.Last(tail.Title); ok && first != required {
			return RejectLetter(required)
		}
		// A letterless tail establishes no constraint
	}

	// 3. Uniqueness
	for i := range chain {
		if chain[i].TMDBID == candidate.TMDBID {
			return Reject(ReasonDuplicate)
		}
	}

	// 4. Daily limit
	if hasSubmittedOn(chain, user.Fid, now) {
		return Reject(ReasonDailyLimit)
	}

	return Accept()
}

// RequiredLetter returns the letter the next submission must start with.
// ok is false when the chain is empty or its tail has no letters, meaning
// any title is acceptable.
func RequiredLetter(chain []models.ChainEntry) (byte, bool) {
	if len(chain) == 0 {
		return 0, false
	}
	return letters.Last(chain[len(chain)-1].Title)
}

// hasSubmittedOn reports whether fid already has an entry accepted on the
// same UTC calendar day as now
func hasSubmittedOn(chain []models.ChainEntry, fid int64, now time.Time) bool {
	y, m, d := now.UTC().Date()
	for i := range chain {
		if chain[i].Fid != fid {
			continue
		}
		ey, em, ed := chain[i].CreatedAt.UTC().Date()
		if ey == y && em == m && ed == d {
			return true
		}
	}
	return false
}
