package model

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	orderModel "roastery-backend/internal/domains/order/model"
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

// =====================================================
// CHECKOUT: CREATE INTENT
// =====================================================

// CheckoutItem là một dòng giỏ hàng lúc checkout; UnitAmount tính bằng minor units
type CheckoutItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Variation  string `json:"variation,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

func (i CheckoutItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required, validation.Length(1, 64)),
		validation.Field(&i.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&i.Variation, validation.Length(0, 100)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&i.UnitAmount, validation.Min(int64(0))),
	)
}

type CreateIntentRequest struct {
	Amount   int64                       `json:"amount"`
	Currency string                      `json:"currency"`
	Customer orderModel.CustomerSnapshot `json:"customer"`
	Shipping orderModel.ShippingSnapshot `json:"shipping"`
	Items    []CheckoutItem              `json:"items"`
}

// Validate không kiểm tra amount: amount <= 0 là ErrInvalidAmount, check riêng trước
func (r CreateIntentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Currency, validation.Required, validation.Match(currencyPattern)),
		validation.Field(&r.Customer, validation.By(validateCustomer)),
		validation.Field(&r.Shipping, validation.By(validateShipping)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
	)
}

func validateCustomer(value interface{}) error {
	c, _ := value.(orderModel.CustomerSnapshot)
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Phone, validation.Length(0, 32)),
	)
}

func validateShipping(value interface{}) error {
	s, _ := value.(orderModel.ShippingSnapshot)
	return validation.ValidateStruct(&s,
		validation.Field(&s.Line1, validation.Required, validation.Length(1, 200)),
		validation.Field(&s.Line2, validation.Length(0, 200)),
		validation.Field(&s.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&s.Region, validation.Length(0, 100)),
		validation.Field(&s.PostalCode, validation.Length(0, 20)),
		validation.Field(&s.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&s.Method, validation.Length(0, 50)),
	)
}

type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"intentId"`
}

// =====================================================
// ADMIN: RECOVERY + LOOKUP
// =====================================================

type RecoverRequest struct {
	IntentID string `json:"intentId"`
}

func (r RecoverRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IntentID, validation.Required, validation.Length(1, 255)),
	)
}

// ReconcileResponse là body trả về cho recover endpoint
type ReconcileResponse struct {
	Outcome     string         `json:"outcome"`
	IntentID    string         `json:"intentId"`
	OrderID     string         `json:"orderId,omitempty"`
	OrderNumber string         `json:"orderNumber,omitempty"`
	Payment     *PaymentRecord `json:"payment,omitempty"`
}

func NewReconcileResponse(intentID string, res *ConstructResult) ReconcileResponse {
	out := ReconcileResponse{Outcome: res.Outcome, IntentID: intentID, Payment: res.Payment}
	if res.Order != nil {
		out.OrderID = res.Order.ID.String()
		out.OrderNumber = res.Order.OrderNumber
	}
	return out
}

// PaymentDetail là kết quả lookup theo intent id
type PaymentDetail struct {
	Payment *PaymentRecord    `json:"payment"`
	Order   *orderModel.Order `json:"order,omitempty"`
}

// SweepResult tổng kết một lần chạy sweep
type SweepResult struct {
	Checked   int `json:"checked"`
	Recovered int `json:"recovered"`
	Abandoned int `json:"abandoned"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
}
