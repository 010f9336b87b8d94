package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roastery-backend/internal/domains/payment/model"
)

// =====================================================
// INTENT REF REPOSITORY INTERFACE
// =====================================================
type IntentRepository interface {
	// Create lưu ref status created; intent đã tồn tại thì bỏ qua
	Create(ctx context.Context, ref *model.IntentRef) error

	GetByID(ctx context.Context, intentID string) (*model.IntentRef, error)

	// ListStale trả về refs còn created, tạo trước olderThan, cũ nhất trước
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]model.IntentRef, error)

	// MarkAbandoned chỉ đổi ref đang created
	// Returns: false nếu ref không ở trạng thái created
	MarkAbandoned(ctx context.Context, intentID string) (bool, error)
}

// =====================================================
// RECONCILE REPOSITORY INTERFACE
// =====================================================

// ReconcileRepository sở hữu construction step: claim intent + tạo Order + PaymentRecord
// trong một transaction.
type ReconcileRepository interface {
	// ConstructPaidOrder trả về OutcomeCreated với cặp mới, hoặc OutcomeDuplicate với cặp
	// đã tồn tại khi intent đã được reconcile (kể cả khi thua race với reconciler khác).
	ConstructPaidOrder(ctx context.Context, in model.ConstructInput) (*model.ConstructResult, error)

	// FindByIntentID trả về cặp đã có
	// Returns: model.ErrPaymentNotFound nếu intent chưa được reconcile
	FindByIntentID(ctx context.Context, intentID string) (*model.ConstructResult, error)

	// MarkRefunded cập nhật amount_refunded; refund toàn phần thì order -> refunded
	MarkRefunded(ctx context.Context, intentID string, amountRefunded int64, full bool) (*model.ConstructResult, error)
}

// =====================================================
// WEBHOOK LOG REPOSITORY INTERFACE
// =====================================================
type WebhookRepository interface {
	// Receive ghi event (unique theo event_id). Event đã có thì tăng attempts
	// và trả về row hiện tại để caller biết đã processed chưa.
	Receive(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error)

	MarkProcessed(ctx context.Context, id uuid.UUID, outcome string) error
	MarkFailed(ctx context.Context, id uuid.UUID, processingErr string) error

	// RecordMalformed lưu payload không parse được (không có event_id)
	RecordMalformed(ctx context.Context, payload []byte, reason string) error
}
