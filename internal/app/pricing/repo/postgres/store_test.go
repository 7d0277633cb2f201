package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"6.60", "4.00", "0.03", "1234.56"} {
		m := domain.MustParseMoney(s)
		back, err := fromNumeric(toNumeric(m))
		require.NoError(t, err)
		assert.True(t, m.Equals(back), s)
		assert.Equal(t, s, back.String())
	}

	_, err := fromNumeric(pgtype.Numeric{NaN: true, Valid: true})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", migrateURL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}

func TestTranslateErr(t *testing.T) {
	assert.ErrorIs(t, translateErr("op", &pgconn.PgError{Code: "23505"}), domain.ErrProductExists)
	assert.ErrorIs(t, translateErr("op", &pgconn.PgError{Code: "40001"}), domain.ErrTransientPersistence)
	assert.ErrorIs(t, translateErr("op", &pgconn.PgError{Code: "23514"}), domain.ErrInvariantViolation)
	assert.ErrorIs(t, translateErr("op", domain.ErrProductNotFound), domain.ErrProductNotFound)
	assert.NoError(t, translateErr("op", nil))
}
