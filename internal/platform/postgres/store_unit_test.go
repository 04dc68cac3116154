package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/cardsmith/cardsmith-api/internal/store"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: false,
		},
		{
			name: "unique_violation",
			err: &pgconn.PgError{
				Code:           pgUniqueViolationCode,
				ConstraintName: "users_email_key",
			},
			expected: true,
		},
		{
			name: "wrapped_unique_violation",
			err: errors.Join(
				errors.New("insert failed"),
				&pgconn.PgError{Code: pgUniqueViolationCode},
			),
			expected: true,
		},
		{
			name:     "other_pg_error",
			err:      &pgconn.PgError{Code: pgForeignKeyViolationCode},
			expected: false,
		},
		{
			name:     "plain_error",
			err:      errors.New("not a pg error"),
			expected: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, isUniqueViolation(tc.err))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: pgForeignKeyViolationCode}))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: pgUniqueViolationCode}))
	assert.False(t, isForeignKeyViolation(nil))
}

func TestSortColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sortBy   string
		expected string
		wantErr  bool
	}{
		{name: "default_empty", sortBy: "", expected: "created_at"},
		{name: "created_at", sortBy: store.SortByCreatedAt, expected: "created_at"},
		{name: "updated_at", sortBy: store.SortByUpdatedAt, expected: "updated_at"},
		{name: "source", sortBy: store.SortBySource, expected: "source"},
		{name: "unknown_column", sortBy: "back", wantErr: true},
		{name: "injection_attempt", sortBy: "created_at; DROP TABLE flashcards", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			col, err := sortColumn(tc.sortBy)
			if tc.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidEntity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, col)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\temp`, escapeLike(`c:\temp`))
}
