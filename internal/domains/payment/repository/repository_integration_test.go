//go:build integration

package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	orderModel "roastery-backend/internal/domains/order/model"
	orderRepo "roastery-backend/internal/domains/order/repository"
	"roastery-backend/internal/domains/payment/model"
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

func constructInput(intentID string) model.ConstructInput {
	return model.ConstructInput{
		IntentID: intentID,
		Amount:   4999,
		Currency: "aed",
		Snapshot: model.CheckoutSnapshot{
			Customer: orderModel.CustomerSnapshot{Name: "Omar", Email: "omar@roastery.test"},
			Shipping: orderModel.ShippingSnapshot{Line1: "1 Marina Walk", City: "Dubai", Country: "AE"},
			Items: []model.CheckoutItem{
				{ProductID: "kenya-aa", Name: "Kenya AA 250g", Quantity: 1, UnitAmount: 4999},
			},
		},
		Brand: "visa",
		Last4: "4242",
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, table, intentID string) int {
	t.Helper()
	column := "intent_id"
	if table == "orders" {
		column = "payment_intent_id"
	}
	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM `+table+` WHERE `+column+` = $1`, intentID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestConstructPaidOrder_Integration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	intents := NewIntentRepository(pool)
	reconciler := NewReconcileRepository(pool, orderRepo.NewPostgresOrderRepository(pool))

	require.NoError(t, intents.Create(ctx, &model.IntentRef{IntentID: "pi_int_1", Amount: 4999, Currency: "aed"}))

	t.Run("creates one order and one payment", func(t *testing.T) {
		res, err := reconciler.ConstructPaidOrder(ctx, constructInput("pi_int_1"))
		require.NoError(t, err)

		assert.Equal(t, model.OutcomeCreated, res.Outcome)
		assert.Equal(t, "49.99", res.Order.Total.StringFixed(2))
		assert.Equal(t, orderModel.OrderStatusPaid, res.Order.Status)
		assert.Equal(t, model.PaymentStatusSucceeded, res.Payment.Status)
		assert.Equal(t, "4242", res.Payment.Last4)

		ref, err := intents.GetByID(ctx, "pi_int_1")
		require.NoError(t, err)
		assert.Equal(t, model.IntentStatusReconciled, ref.Status)
		assert.NotNil(t, ref.ReconciledAt)
	})

	t.Run("second construction is a duplicate", func(t *testing.T) {
		res, err := reconciler.ConstructPaidOrder(ctx, constructInput("pi_int_1"))
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeDuplicate, res.Outcome)

		assert.Equal(t, 1, countRows(t, pool, "orders", "pi_int_1"))
		assert.Equal(t, 1, countRows(t, pool, "payment_records", "pi_int_1"))
	})

	t.Run("missing intent ref is claimed by the upsert", func(t *testing.T) {
		res, err := reconciler.ConstructPaidOrder(ctx, constructInput("pi_int_no_ref"))
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeCreated, res.Outcome)
	})

	t.Run("concurrent constructions serialize", func(t *testing.T) {
		const workers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes = map[string]int{}
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := reconciler.ConstructPaidOrder(ctx, constructInput("pi_int_race"))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				outcomes[res.Outcome]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, outcomes[model.OutcomeCreated])
		assert.Equal(t, workers-1, outcomes[model.OutcomeDuplicate])
		assert.Equal(t, 1, countRows(t, pool, "orders", "pi_int_race"))
		assert.Equal(t, 1, countRows(t, pool, "payment_records", "pi_int_race"))
	})

	t.Run("refunds update payment and order", func(t *testing.T) {
		res, err := reconciler.MarkRefunded(ctx, "pi_int_1", 1000, false)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPartiallyRefunded, res.Payment.Status)
		assert.Equal(t, orderModel.OrderStatusPaid, res.Order.Status)

		res, err = reconciler.MarkRefunded(ctx, "pi_int_1", 4999, true)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusRefunded, res.Payment.Status)
		assert.Equal(t, orderModel.OrderStatusRefunded, res.Order.Status)

		_, err = reconciler.MarkRefunded(ctx, "pi_unknown", 100, true)
		assert.ErrorIs(t, err, model.ErrPaymentNotFound)
	})
}

func TestIntentRepository_Integration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	intents := NewIntentRepository(pool)

	require.NoError(t, intents.Create(ctx, &model.IntentRef{IntentID: "pi_old", Amount: 100, Currency: "aed"}))
	// duplicate create is a no-op
	require.NoError(t, intents.Create(ctx, &model.IntentRef{IntentID: "pi_old", Amount: 100, Currency: "aed"}))

	stale, err := intents.ListStale(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "pi_old", stale[0].IntentID)

	changed, err := intents.MarkAbandoned(ctx, "pi_old")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = intents.MarkAbandoned(ctx, "pi_old")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = intents.GetByID(ctx, "pi_missing")
	assert.ErrorIs(t, err, model.ErrIntentNotFound)
}

func TestWebhookRepository_Integration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	webhooks := NewWebhookRepository(pool)

	eventID := "evt_1"
	first, err := webhooks.Receive(ctx, &model.WebhookEvent{
		EventID:   &eventID,
		EventType: model.EventIntentSucceeded,
		IntentID:  "pi_1",
		Payload:   `{"id":"evt_1"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempts)

	require.NoError(t, webhooks.MarkProcessed(ctx, first.ID, model.OutcomeCreated))

	again, err := webhooks.Receive(ctx, &model.WebhookEvent{
		EventID:   &eventID,
		EventType: model.EventIntentSucceeded,
		IntentID:  "pi_1",
		Payload:   `{"id":"evt_1"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.Attempts)
	assert.Equal(t, model.WebhookStatusProcessed, again.Status)

	require.NoError(t, webhooks.RecordMalformed(ctx, []byte("garbage"), "body is not a JSON event"))
}
