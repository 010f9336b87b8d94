package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS
// =====================================================
type OrderStatus string

const (
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// validTransitions: order chỉ tồn tại sau khi thanh toán thành công nên bắt đầu từ paid
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// CanTransitionTo checks if status can move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// =====================================================
// SNAPSHOTS (JSONB)
// =====================================================

// CustomerSnapshot là thông tin khách tại thời điểm checkout
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ShippingSnapshot là địa chỉ giao hàng tại thời điểm checkout
type ShippingSnapshot struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Method     string `json:"method,omitempty"`
}

// =====================================================
// ENTITY: Order
// =====================================================
type Order struct {
	ID              uuid.UUID        `json:"id"`
	OrderNumber     string           `json:"order_number"`
	UserID          *uuid.UUID       `json:"user_id,omitempty"`
	PaymentIntentID string           `json:"payment_intent_id"`
	Status          OrderStatus      `json:"status"`
	Total           decimal.Decimal  `json:"total"`
	Currency        string           `json:"currency"`
	Customer        CustomerSnapshot `json:"customer"`
	Shipping        ShippingSnapshot `json:"shipping"`
	Items           []OrderItem      `json:"items,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// =====================================================
// ENTITY: OrderItem
// =====================================================
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Variation string          `json:"variation,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// BelongsTo kiểm tra order có thuộc user không (guest order thì không)
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}
