package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "tmdb_id constraint is a duplicate",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "chain_entries_tmdb_id_key"},
			want: ErrDuplicateMovie,
		},
		{
			name: "position constraint is a stale tail",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "chain_entries_position_key"},
			want: ErrStaleTail,
		},
		{
			name: "other pg error passes through",
			err:  &pgconn.PgError{Code: "23503"},
			want: nil,
		},
		{
			name: "non-pg error passes through",
			err:  errors.New("connection reset"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapUniqueViolation(tt.err))
		})
	}
}

func TestMapUniqueViolation_WrappedError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "chain_entries_tmdb_id_key"}
	wrapped := errors.Join(errors.New("insert failed"), pgErr)

	assert.Equal(t, ErrDuplicateMovie, mapUniqueViolation(wrapped))
}
