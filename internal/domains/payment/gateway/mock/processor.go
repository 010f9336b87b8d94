package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"roastery-backend/internal/domains/payment/gateway"
	"roastery-backend/internal/domains/payment/gateway/processor"
	"roastery-backend/internal/domains/payment/model"
)

// =====================================================
// IN-MEMORY PROCESSOR FOR TESTING / LOCAL DEV
// =====================================================

type Processor struct {
	mu      sync.Mutex
	secret  string
	intents map[string]*model.ProcessorIntent

	createErr   error
	retrieveErr error
	createCalls int
}

var _ gateway.Processor = (*Processor)(nil)

func NewProcessor(webhookSecret string) *Processor {
	return &Processor{
		secret:  webhookSecret,
		intents: make(map[string]*model.ProcessorIntent),
	}
}

func (p *Processor) CreateIntent(ctx context.Context, req gateway.CreateIntentParams) (*model.ProcessorIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := "pi_mock_" + randomHex(12)
	intent := &model.ProcessorIntent{
		ID:           id,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       model.ProcessorStatusRequiresPaymentMethod,
		ClientSecret: id + "_secret_" + randomHex(8),
		Metadata:     copyMeta(req.Metadata),
		Method:       "card",
	}
	p.intents[id] = intent

	out := *intent
	return &out, nil
}

func (p *Processor) RetrieveIntent(ctx context.Context, intentID string) (*model.ProcessorIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, model.ErrIntentNotFound
	}
	out := *intent
	return &out, nil
}

func (p *Processor) VerifySignature(payload []byte, header string) error {
	return processor.VerifyHeader(payload, header, p.secret, 5*time.Minute, time.Now())
}

// =====================================================
// TEST CONTROLS
// =====================================================

// SetStatus mô phỏng khách hoàn tất (hoặc hủy) thanh toán
func (p *Processor) SetStatus(intentID, status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return model.ErrIntentNotFound
	}
	intent.Status = status
	if status == model.ProcessorStatusSucceeded {
		intent.ChargeID = "ch_mock_" + randomHex(8)
		intent.Brand = "visa"
		intent.Last4 = "4242"
	}
	return nil
}

func (p *Processor) FailCreate(err error) {
	p.mu.Lock()
	p.createErr = err
	p.mu.Unlock()
}

func (p *Processor) FailRetrieve(err error) {
	p.mu.Lock()
	p.retrieveErr = err
	p.mu.Unlock()
}

func (p *Processor) CreateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls
}

// IntentEvent dựng payment_intent.* notification đã ký cho intent hiện có
func (p *Processor) IntentEvent(eventID, eventType, intentID string) ([]byte, string, error) {
	p.mu.Lock()
	intent, ok := p.intents[intentID]
	var object map[string]any
	if ok {
		object = map[string]any{
			"id":                   intent.ID,
			"object":               "payment_intent",
			"amount":               intent.Amount,
			"currency":             intent.Currency,
			"status":               intent.Status,
			"metadata":             intent.Metadata,
			"payment_method_types": []string{"card"},
			"latest_charge":        intent.ChargeID,
		}
	}
	p.mu.Unlock()

	if !ok {
		return nil, "", model.ErrIntentNotFound
	}
	return p.sign(eventID, eventType, object)
}

// RefundEvent dựng charge.refunded notification
func (p *Processor) RefundEvent(eventID, intentID string, amountRefunded int64) ([]byte, string, error) {
	p.mu.Lock()
	intent, ok := p.intents[intentID]
	var object map[string]any
	if ok {
		object = map[string]any{
			"id":              intent.ChargeID,
			"object":          "charge",
			"payment_intent":  intent.ID,
			"amount":          intent.Amount,
			"amount_refunded": amountRefunded,
			"refunded":        amountRefunded >= intent.Amount,
			"currency":        intent.Currency,
		}
	}
	p.mu.Unlock()

	if !ok {
		return nil, "", model.ErrIntentNotFound
	}
	return p.sign(eventID, model.EventChargeRefunded, object)
}

func (p *Processor) sign(eventID, eventType string, object map[string]any) ([]byte, string, error) {
	payload, err := json.Marshal(map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": object},
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal mock event: %w", err)
	}
	return payload, processor.SignatureHeader(payload, p.secret, time.Now()), nil
}

func copyMeta(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
