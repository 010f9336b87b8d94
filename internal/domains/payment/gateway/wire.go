package gateway

import (
	"bytes"
	"encoding/json"
	"strings"

	"roastery-backend/internal/domains/payment/model"
)

// =====================================================
// WIRE TYPES (processor JSON)
// =====================================================

type wireEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type wireIntent struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
	MethodTypes  []string          `json:"payment_method_types"`

	// string id, hoặc object khi request có expand[]=latest_charge
	LatestCharge json.RawMessage `json:"latest_charge"`
}

type wireCharge struct {
	ID             string `json:"id"`
	Object         string `json:"object"`
	PaymentIntent  string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Refunded       bool   `json:"refunded"`
	Currency       string `json:"currency"`
	MethodDetails  struct {
		Type string `json:"type"`
		Card *struct {
			Brand string `json:"brand"`
			Last4 string `json:"last4"`
		} `json:"card"`
	} `json:"payment_method_details"`
}

// DecodeIntent chuyển JSON intent của processor sang model
func DecodeIntent(raw []byte) (*model.ProcessorIntent, error) {
	var w wireIntent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w.toModel(), nil
}

func (w *wireIntent) toModel() *model.ProcessorIntent {
	intent := &model.ProcessorIntent{
		ID:           w.ID,
		Amount:       w.Amount,
		Currency:     model.NormalizeCurrency(w.Currency),
		Status:       w.Status,
		ClientSecret: w.ClientSecret,
		Metadata:     w.Metadata,
	}
	if len(w.MethodTypes) > 0 {
		intent.Method = w.MethodTypes[0]
	}

	charge := bytes.TrimSpace(w.LatestCharge)
	switch {
	case len(charge) == 0 || bytes.Equal(charge, []byte("null")):
	case charge[0] == '"':
		_ = json.Unmarshal(charge, &intent.ChargeID)
	case charge[0] == '{':
		var c wireCharge
		if err := json.Unmarshal(charge, &c); err == nil {
			intent.ChargeID = c.ID
			if c.MethodDetails.Type != "" {
				intent.Method = c.MethodDetails.Type
			}
			if c.MethodDetails.Card != nil {
				intent.Brand = c.MethodDetails.Card.Brand
				intent.Last4 = c.MethodDetails.Card.Last4
			}
		}
	}
	return intent
}

func (w *wireCharge) toModel() *model.ProcessorCharge {
	return &model.ProcessorCharge{
		ID:             w.ID,
		IntentID:       w.PaymentIntent,
		Amount:         w.Amount,
		AmountRefunded: w.AmountRefunded,
		Refunded:       w.Refunded,
		Currency:       model.NormalizeCurrency(w.Currency),
	}
}

// =====================================================
// PARSE NOTIFICATION
// =====================================================

// ParseNotification parse webhook body đã verify chữ ký.
// payment_intent.* phải mang intent object, charge.* phải mang charge có payment_intent;
// các event khác chỉ cần id + type.
func ParseNotification(payload []byte) (*model.Notification, error) {
	var ev wireEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, model.NewMalformedNotificationError("body is not a JSON event")
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, model.NewMalformedNotificationError("event id or type missing")
	}

	n := &model.Notification{EventID: ev.ID, Type: ev.Type, Created: ev.Created}

	switch {
	case strings.HasPrefix(ev.Type, "payment_intent."):
		var w wireIntent
		if len(ev.Data.Object) == 0 || json.Unmarshal(ev.Data.Object, &w) != nil || w.ID == "" {
			return nil, model.NewMalformedNotificationError("intent object missing")
		}
		if w.Object != "" && w.Object != "payment_intent" {
			return nil, model.NewMalformedNotificationError("unexpected object " + w.Object)
		}
		n.Intent = w.toModel()

	case strings.HasPrefix(ev.Type, "charge."):
		var w wireCharge
		if len(ev.Data.Object) == 0 || json.Unmarshal(ev.Data.Object, &w) != nil || w.PaymentIntent == "" {
			return nil, model.NewMalformedNotificationError("charge object missing payment_intent")
		}
		n.Charge = w.toModel()
	}

	return n, nil
}
