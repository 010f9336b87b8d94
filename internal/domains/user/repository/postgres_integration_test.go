//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	user "roastery-backend/internal/domains/user"
	"roastery-backend/internal/infrastructure/migrations"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("roastery_test"),
		postgres.WithUsername("roastery"),
		postgres.WithPassword("roastery"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(db))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestCreateAdminIfAbsent(t *testing.T) {
	pool := setupPool(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()

	t.Run("inserts active admin when email is free", func(t *testing.T) {
		u := &user.User{Email: "Boss@Roastery.test", PasswordHash: "hash", FullName: "Administrator"}
		created, err := repo.CreateAdminIfAbsent(ctx, u)
		require.NoError(t, err)
		assert.True(t, created)

		got, err := repo.FindByEmail(ctx, "boss@roastery.test")
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, got.Role)
		assert.True(t, got.IsActive)
	})

	t.Run("existing customer is not promoted", func(t *testing.T) {
		customer := &user.User{
			Email:        "ops@roastery.test",
			PasswordHash: "customer-hash",
			FullName:     "Early Bird",
			Role:         user.RoleCustomer,
			IsActive:     true,
		}
		require.NoError(t, repo.Create(ctx, customer))

		created, err := repo.CreateAdminIfAbsent(ctx, &user.User{
			Email:        "OPS@roastery.test",
			PasswordHash: "operator-hash",
			FullName:     "Administrator",
		})
		require.NoError(t, err)
		assert.False(t, created)

		got, err := repo.FindByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleCustomer, got.Role)
		assert.Equal(t, "customer-hash", got.PasswordHash)
	})

	t.Run("deactivated admin stays inactive", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "boss@roastery.test")
		require.NoError(t, err)
		require.NoError(t, repo.UpdateStatus(ctx, got.ID, false))

		created, err := repo.CreateAdminIfAbsent(ctx, &user.User{
			Email: "boss@roastery.test", PasswordHash: "hash", FullName: "Administrator",
		})
		require.NoError(t, err)
		assert.False(t, created)

		got, err = repo.FindByID(ctx, got.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})
}
