package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"roastery-backend/internal/domains/order/model"
)

// OrderRepository định nghĩa data access cho orders
type OrderRepository interface {
	// CreateWithTx insert order + items trong transaction của caller.
	// Chỉ reconciliation gọi hàm này.
	CreateWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByIntentIDWithTx dùng khi reconcile phát hiện intent đã được xử lý
	GetByIntentIDWithTx(ctx context.Context, tx pgx.Tx, intentID string) (*model.Order, error)

	// MarkRefundedWithTx chuyển order của intent sang refunded
	MarkRefundedWithTx(ctx context.Context, tx pgx.Tx, intentID string) (*model.Order, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*model.Order, error)

	// ListByUser với userID = nil là list toàn bộ (admin)
	List(ctx context.Context, userID *uuid.UUID, req model.ListOrdersRequest) ([]model.OrderSummary, int64, error)

	// UpdateStatus chỉ update khi status hiện tại = from (optimistic)
	// Returns: ErrStatusConflict nếu status đã đổi
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)
}
