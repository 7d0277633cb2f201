package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/postgres"
)

// SetupPostgresTest migrates the database named by DYNPRICE_TEST_POSTGRES_DSN
// and returns a pool on an empty schema. Skips when the variable is unset.
func SetupPostgresTest(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DYNPRICE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DYNPRICE_TEST_POSTGRES_DSN not set")
	}

	require.NoError(t, postgres.Migrate(dsn), "failed to migrate test database")

	pool, err := postgres.NewPool(context.Background(), dsn, 10)
	require.NoError(t, err, "failed to connect to test database")

	TruncatePostgres(t, pool)
	t.Cleanup(func() {
		TruncatePostgres(t, pool)
		pool.Close()
	})
	return pool
}

// TruncatePostgres empties every pricing table.
func TruncatePostgres(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE order_lines, orders, price_history, products")
	require.NoError(t, err, "failed to truncate tables")
}
