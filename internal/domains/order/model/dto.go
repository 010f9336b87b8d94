package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// LIST
// =====================================================
type ListOrdersRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
}

func (r *ListOrdersRequest) SetDefaults() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

func (r ListOrdersRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

func (r ListOrdersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.When(r.Status != "",
			validation.By(func(value interface{}) error {
				if !OrderStatus(value.(string)).IsValid() {
					return ErrInvalidStatus
				}
				return nil
			}),
		)),
	)
}

// OrderSummary là một dòng trong danh sách đơn
type OrderSummary struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      OrderStatus     `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	ItemsCount  int             `json:"items_count"`
	Customer    string          `json:"customer_email"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ListOrdersResponse struct {
	Orders []OrderSummary `json:"orders"`
	Total  int64          `json:"total"`
}

// =====================================================
// UPDATE STATUS
// =====================================================
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

func (r UpdateStatusRequest) Validate() error {
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
