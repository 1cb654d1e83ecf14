package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestLostFirstInsertRace(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "violation on the upsert key is the first-insert race",
			err:  pgError(pgUniqueViolation, songRatingUpsertKey),
			want: true,
		},
		{
			name: "wrapped violation on the upsert key",
			err:  fmt.Errorf("create failed: %w", pgError(pgUniqueViolation, songRatingUpsertKey)),
			want: true,
		},
		{
			name: "violation on another constraint is a real conflict",
			err:  pgError(pgUniqueViolation, "users_pkey"),
			want: false,
		},
		{
			name: "non-unique pg error",
			err:  pgError(pgUndefinedTable, ""),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lostFirstInsertRace(tt.err))
		})
	}
}

// The upsert-key violation must be caught by the retry branch before error
// normalization sees it: normalized it reads as a write conflict, which is
// reserved for violations off the upsert key.
func TestUpsertKeyViolationWouldNormalizeToConflict(t *testing.T) {
	err := pgError(pgUniqueViolation, songRatingUpsertKey)

	assert.True(t, lostFirstInsertRace(err))
	assert.ErrorIs(t, normalizeStoreError(err), ErrStoreConflict)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	assert.Equal(t, songRatingUpsertKey, pgErr.ConstraintName)
}
