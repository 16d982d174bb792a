package models

import "time"

// ChainEntry is an accepted member of the movie chain.
// Maps to: chain_entries table
type ChainEntry struct {
	// Store-assigned identifier, immutable
	ID int64 `db:"id" json:"id"`

	// Canonical TMDb movie id; unique across the chain
	TMDBID int64 `db:"tmdb_id" json:"tmdb_id"`

	// Display title at time of submission
	Title string `db:"title" json:"title"`

	// Submitter identity from the host platform
	Fid      int64  `db:"fid" json:"fid"`
	Username string `db:"username" json:"username"`

	// TMDb vote average, clamped to [0,10]; 0 when the source omits it
	Rating float64 `db:"rating" json:"rating"`

	// Optional TMDb poster path
	PosterPath *string `db:"poster_path" json:"poster_path,omitempty"`

	// 1-based rank in the chain; gapless and strictly increasing
	Position int `db:"position" json:"position"`

	// Acceptance time; drives the one-per-day limit (UTC day boundary)
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CandidateMovie is a movie resolved from TMDb, not yet accepted into the chain
type CandidateMovie struct {
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	Rating      float64 `json:"rating"`
	PosterPath  *string `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// User is the acting identity supplied by the host platform
type User struct {
	Fid      int64  `json:"fid"`
	Username string `json:"username"`
}

// Anonymous is the synthetic fallback identity. Only usable when the
// service is configured to allow anonymous play (dev/testing).
var Anonymous = User{Fid: 0, Username: "anonymous"}
