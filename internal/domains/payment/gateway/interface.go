package gateway

import (
	"context"

	"roastery-backend/internal/domains/payment/model"
)

// =====================================================
// GATEWAY INTERFACE
// =====================================================

// Processor là card processor (Stripe-compatible API).
// Mọi call ra ngoài phải có timeout: implementation tự áp timeout của nó,
// caller có thể truyền ctx với deadline ngắn hơn.
type Processor interface {
	// CreateIntent tạo payment intent, trả về client secret cho frontend
	CreateIntent(ctx context.Context, req CreateIntentParams) (*model.ProcessorIntent, error)

	// RetrieveIntent đọc lại intent (kèm latest_charge để lấy brand/last4)
	// Returns: model.ErrIntentNotFound nếu processor trả 404
	RetrieveIntent(ctx context.Context, intentID string) (*model.ProcessorIntent, error)

	// VerifySignature kiểm tra header chữ ký của webhook body
	VerifySignature(payload []byte, header string) error
}

// =====================================================
// REQUEST TYPES
// =====================================================

// CreateIntentParams request to create payment intent
type CreateIntentParams struct {
	Amount         int64             // minor units
	Currency       string            // lowercase ISO 4217
	Metadata       map[string]string // checkout snapshot
	ReceiptEmail   string
	IdempotencyKey string
}
