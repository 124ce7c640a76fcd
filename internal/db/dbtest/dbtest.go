// Package dbtest: хелперы для интеграционных тестов с Postgres.
package dbtest

import (
	"context"
	"os"
	"testing"

	"propadmin/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenTestPool поднимает пул к TEST_POSTGRESQL_URL и накатывает миграции.
// Без переменной тест пропускается.
func OpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRESQL_URL")
	if dsn == "" {
		t.Skip("TEST_POSTGRESQL_URL not set, skipping postgres test")
	}
	if err := db.Migrate(dsn, false); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE images, password_resets, admins RESTART IDENTITY`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
