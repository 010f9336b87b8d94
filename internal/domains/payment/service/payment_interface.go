package service

import (
	"context"
	"time"

	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/domains/user"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// ============================================
	// CHECKOUT
	// ============================================

	// CreateIntent tạo processor intent cho giỏ hàng. Không tạo order.
	// principal = nil với guest checkout.
	CreateIntent(ctx context.Context, principal *user.Principal, req model.CreateIntentRequest) (*model.CreateIntentResponse, error)

	// ============================================
	// RECONCILIATION
	// ============================================

	// Reconcile xử lý processor notification (raw body + signature header)
	Reconcile(ctx context.Context, payload []byte, signatureHeader string) (*model.ConstructResult, error)

	// RecoverMissing đọc intent từ processor và chạy construction step nếu đã succeeded
	RecoverMissing(ctx context.Context, intentID string) (*model.ConstructResult, error)

	// SweepStuckIntents kiểm tra các intent ref còn created lâu hơn olderThan
	SweepStuckIntents(ctx context.Context, olderThan time.Duration, limit int) (*model.SweepResult, error)

	// ============================================
	// ADMIN
	// ============================================

	GetPayment(ctx context.Context, intentID string) (*model.PaymentDetail, error)
}

// RecoveryScheduler hẹn giờ chạy lại RecoverMissing cho một intent
type RecoveryScheduler interface {
	EnqueueRecoverIntent(ctx context.Context, intentID string) error
}
