package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderModel "roastery-backend/internal/domains/order/model"
)

// =====================================================
// INTENT REF
// =====================================================

// IntentRef là bản ghi local của một processor intent, tạo lúc checkout.
// Chỉ dùng để sweep tìm intent bị kẹt; reconcile vẫn chạy khi không có ref.
type IntentRef struct {
	IntentID     string     `json:"intent_id"`
	Amount       int64      `json:"amount"` // minor units
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ReconciledAt *time.Time `json:"reconciled_at,omitempty"`
}

// =====================================================
// PAYMENT RECORD
// =====================================================
type PaymentRecord struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	IntentID       string          `json:"intent_id"`
	Status         string          `json:"status"`
	Method         string          `json:"method"`
	Brand          string          `json:"brand,omitempty"`
	Last4          string          `json:"last4,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	AmountRefunded decimal.Decimal `json:"amount_refunded"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// =====================================================
// WEBHOOK EVENT LOG
// =====================================================
type WebhookEvent struct {
	ID              uuid.UUID  `json:"id"`
	EventID         *string    `json:"event_id,omitempty"` // nil với notification malformed
	EventType       string     `json:"event_type"`
	IntentID        string     `json:"intent_id,omitempty"`
	Status          string     `json:"status"`
	Outcome         string     `json:"outcome,omitempty"`
	Payload         string     `json:"-"`
	ProcessingError string     `json:"processing_error,omitempty"`
	Attempts        int        `json:"attempts"`
	ReceivedAt      time.Time  `json:"received_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

// =====================================================
// PROCESSOR SIDE
// =====================================================

// ProcessorIntent là payment intent như processor trả về
type ProcessorIntent struct {
	ID           string
	Amount       int64
	Currency     string
	Status       string
	ClientSecret string
	Metadata     map[string]string

	// từ latest_charge (nếu expand được)
	ChargeID string
	Method   string
	Brand    string
	Last4    string
}

func (i *ProcessorIntent) Succeeded() bool {
	return i.Status == ProcessorStatusSucceeded
}

// ProcessorCharge chỉ xuất hiện trong charge.* notifications
type ProcessorCharge struct {
	ID             string
	IntentID       string
	Amount         int64
	AmountRefunded int64
	Refunded       bool
	Currency       string
}

// Notification là event đã parse từ webhook body
type Notification struct {
	EventID string
	Type    string
	Created int64
	Intent  *ProcessorIntent
	Charge  *ProcessorCharge
}

// IntentID trả về intent mà notification nói tới, dù object là intent hay charge
func (n *Notification) IntentID() string {
	switch {
	case n.Intent != nil:
		return n.Intent.ID
	case n.Charge != nil:
		return n.Charge.IntentID
	}
	return ""
}

// =====================================================
// CONSTRUCTION
// =====================================================

// ConstructInput là tất cả những gì construction step cần để tạo Order + PaymentRecord
type ConstructInput struct {
	IntentID string
	Amount   int64
	Currency string
	UserID   *uuid.UUID
	Snapshot CheckoutSnapshot
	Method   string
	Brand    string
	Last4    string
}

// ConstructResult là cặp Order + PaymentRecord của một intent
type ConstructResult struct {
	Outcome string
	Order   *orderModel.Order
	Payment *PaymentRecord
}

// MinorToDecimal: 4999 -> 49.99
func MinorToDecimal(amount int64) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent)
}

// NormalizeCurrency: "AED " -> "aed"
func NormalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

// BuildOrder dựng Order (status paid) từ intent + snapshot
func (in ConstructInput) BuildOrder() *orderModel.Order {
	items := make([]orderModel.OrderItem, 0, len(in.Snapshot.Items))
	for _, it := range in.Snapshot.Items {
		unit := MinorToDecimal(it.UnitAmount)
		items = append(items, orderModel.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Variation: it.Variation,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}

	return &orderModel.Order{
		UserID:          in.UserID,
		PaymentIntentID: in.IntentID,
		Status:          orderModel.OrderStatusPaid,
		Total:           MinorToDecimal(in.Amount),
		Currency:        NormalizeCurrency(in.Currency),
		Customer:        in.Snapshot.Customer,
		Shipping:        in.Snapshot.Shipping,
		Items:           items,
	}
}

// BuildPayment dựng PaymentRecord (succeeded) cho order vừa tạo
func (in ConstructInput) BuildPayment(orderID uuid.UUID) *PaymentRecord {
	method := in.Method
	if method == "" {
		method = "card"
	}
	return &PaymentRecord{
		ID:             uuid.New(),
		OrderID:        orderID,
		IntentID:       in.IntentID,
		Status:         PaymentStatusSucceeded,
		Method:         method,
		Brand:          in.Brand,
		Last4:          in.Last4,
		Amount:         MinorToDecimal(in.Amount),
		AmountRefunded: decimal.Zero,
		Currency:       NormalizeCurrency(in.Currency),
	}
}
