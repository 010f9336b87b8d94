package service

import (
	"context"

	"github.com/google/uuid"

	"roastery-backend/internal/domains/order/model"
)

type OrderService interface {
	// Customer
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) (*model.ListOrdersResponse, error)

	// Admin
	GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	AdminList(ctx context.Context, req model.ListOrdersRequest) (*model.ListOrdersResponse, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next model.OrderStatus, actorID uuid.UUID) (*model.Order, error)
}
