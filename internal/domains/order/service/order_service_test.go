package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roastery-backend/internal/domains/order/model"
)

type fakeRepo struct {
	orders   map[uuid.UUID]*model.Order
	conflict bool
}

func (r *fakeRepo) CreateWithTx(context.Context, pgx.Tx, *model.Order) error { return nil }

func (r *fakeRepo) GetByIntentIDWithTx(context.Context, pgx.Tx, string) (*model.Order, error) {
	return nil, model.ErrOrderNotFound
}

func (r *fakeRepo) MarkRefundedWithTx(context.Context, pgx.Tx, string) (*model.Order, error) {
	return nil, model.ErrOrderNotFound
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) GetByIntentID(context.Context, string) (*model.Order, error) {
	return nil, model.ErrOrderNotFound
}

func (r *fakeRepo) List(_ context.Context, userID *uuid.UUID, req model.ListOrdersRequest) ([]model.OrderSummary, int64, error) {
	var out []model.OrderSummary
	for _, o := range r.orders {
		if userID != nil && !o.BelongsTo(*userID) {
			continue
		}
		if req.Status != "" && string(o.Status) != req.Status {
			continue
		}
		out = append(out, model.OrderSummary{ID: o.ID, Status: o.Status, Total: o.Total})
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from || r.conflict {
		return nil, model.ErrStatusConflict
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func seed(repo *fakeRepo, owner *uuid.UUID, status model.OrderStatus) *model.Order {
	o := &model.Order{
		ID:       uuid.New(),
		UserID:   owner,
		Status:   status,
		Total:    decimal.RequireFromString("49.99"),
		Currency: "aed",
	}
	repo.orders[o.ID] = o
	return o
}

func TestGetForUser(t *testing.T) {
	repo := &fakeRepo{orders: map[uuid.UUID]*model.Order{}}
	svc := NewOrderService(repo)
	owner := uuid.New()
	mine := seed(repo, &owner, model.OrderStatusPaid)
	guest := seed(repo, nil, model.OrderStatusPaid)
	ctx := context.Background()

	got, err := svc.GetForUser(ctx, owner, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.GetForUser(ctx, uuid.New(), mine.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	_, err = svc.GetForUser(ctx, owner, guest.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestListForUser(t *testing.T) {
	repo := &fakeRepo{orders: map[uuid.UUID]*model.Order{}}
	svc := NewOrderService(repo)
	owner := uuid.New()
	seed(repo, &owner, model.OrderStatusPaid)
	seed(repo, &owner, model.OrderStatusShipped)
	seed(repo, nil, model.OrderStatusPaid)

	res, err := svc.ListForUser(context.Background(), owner, model.ListOrdersRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = svc.AdminList(context.Background(), model.ListOrdersRequest{Status: "paid"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	_, err = svc.AdminList(context.Background(), model.ListOrdersRequest{Status: "bogus"})
	assert.Error(t, err)
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeRepo{orders: map[uuid.UUID]*model.Order{}}
	svc := NewOrderService(repo)
	o := seed(repo, nil, model.OrderStatusPaid)
	ctx := context.Background()
	actor := uuid.New()

	updated, err := svc.UpdateStatus(ctx, o.ID, model.OrderStatusProcessing, actor)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)

	_, err = svc.UpdateStatus(ctx, o.ID, model.OrderStatusDelivered, actor)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, o.ID, "teleported", actor)
	assert.ErrorIs(t, err, model.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, uuid.New(), model.OrderStatusShipped, actor)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	repo.conflict = true
	_, err = svc.UpdateStatus(ctx, o.ID, model.OrderStatusShipped, actor)
	assert.ErrorIs(t, err, model.ErrStatusConflict)
}
