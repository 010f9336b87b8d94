package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	orderModel "roastery-backend/internal/domains/order/model"
	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/infrastructure/events"
)

// =====================================================
// IN-MEMORY FAKES
// =====================================================

type fakeIntents struct {
	mu   sync.Mutex
	refs map[string]*model.IntentRef
	err  error
}

func newFakeIntents() *fakeIntents {
	return &fakeIntents{refs: make(map[string]*model.IntentRef)}
}

func (f *fakeIntents) Create(_ context.Context, ref *model.IntentRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.refs[ref.IntentID]; ok {
		return nil
	}
	cp := *ref
	cp.CreatedAt = time.Now()
	f.refs[ref.IntentID] = &cp
	return nil
}

func (f *fakeIntents) GetByID(_ context.Context, id string) (*model.IntentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[id]
	if !ok {
		return nil, model.ErrIntentNotFound
	}
	cp := *ref
	return &cp, nil
}

func (f *fakeIntents) ListStale(_ context.Context, olderThan time.Time, limit int) ([]model.IntentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.IntentRef
	for _, ref := range f.refs {
		if ref.Status == model.IntentStatusCreated && ref.CreatedAt.Before(olderThan) && len(out) < limit {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (f *fakeIntents) MarkAbandoned(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[id]
	if !ok || ref.Status != model.IntentStatusCreated {
		return false, nil
	}
	ref.Status = model.IntentStatusAbandoned
	return true, nil
}

func (f *fakeIntents) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ref, ok := f.refs[id]; ok {
		return ref.Status
	}
	return ""
}

// fakeReconciler giữ invariant một cặp / intent giống unique constraint
type fakeReconciler struct {
	mu         sync.Mutex
	pairs      map[string]*model.ConstructResult
	intents    *fakeIntents
	failNext   []error
	constructs int
}

func newFakeReconciler(intents *fakeIntents) *fakeReconciler {
	return &fakeReconciler{pairs: make(map[string]*model.ConstructResult), intents: intents}
}

func (f *fakeReconciler) ConstructPaidOrder(_ context.Context, in model.ConstructInput) (*model.ConstructResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructs++

	if len(f.failNext) > 0 {
		err := f.failNext[0]
		f.failNext = f.failNext[1:]
		return nil, err
	}

	if existing, ok := f.pairs[in.IntentID]; ok {
		return &model.ConstructResult{Outcome: model.OutcomeDuplicate, Order: existing.Order, Payment: existing.Payment}, nil
	}

	order := in.BuildOrder()
	order.ID = uuid.New()
	order.OrderNumber = orderModel.NewOrderNumber(time.Now())
	order.CreatedAt = time.Now()
	payment := in.BuildPayment(order.ID)

	res := &model.ConstructResult{Outcome: model.OutcomeCreated, Order: order, Payment: payment}
	f.pairs[in.IntentID] = res

	if f.intents != nil {
		f.intents.mu.Lock()
		if ref, ok := f.intents.refs[in.IntentID]; ok {
			ref.Status = model.IntentStatusReconciled
		}
		f.intents.mu.Unlock()
	}
	return res, nil
}

func (f *fakeReconciler) FindByIntentID(_ context.Context, intentID string) (*model.ConstructResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.pairs[intentID]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	return &model.ConstructResult{Order: res.Order, Payment: res.Payment}, nil
}

func (f *fakeReconciler) MarkRefunded(_ context.Context, intentID string, amountRefunded int64, full bool) (*model.ConstructResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.pairs[intentID]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	res.Payment.AmountRefunded = model.MinorToDecimal(amountRefunded)
	res.Payment.Status = model.PaymentStatusPartiallyRefunded
	if full {
		res.Payment.Status = model.PaymentStatusRefunded
		res.Order.Status = orderModel.OrderStatusRefunded
	}
	return &model.ConstructResult{Outcome: model.OutcomeRefunded, Order: res.Order, Payment: res.Payment}, nil
}

func (f *fakeReconciler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs)
}

func (f *fakeReconciler) pair(intentID string) *model.ConstructResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[intentID]
}

type fakeWebhooks struct {
	mu        sync.Mutex
	events    map[string]*model.WebhookEvent
	malformed [][]byte
}

func newFakeWebhooks() *fakeWebhooks {
	return &fakeWebhooks{events: make(map[string]*model.WebhookEvent)}
}

func (f *fakeWebhooks) Receive(_ context.Context, ev *model.WebhookEvent) (*model.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.events[*ev.EventID]; ok {
		existing.Attempts++
		cp := *existing
		return &cp, nil
	}
	stored := *ev
	stored.ID = uuid.New()
	stored.Status = model.WebhookStatusReceived
	stored.Attempts = 1
	f.events[*ev.EventID] = &stored
	cp := stored
	return &cp, nil
}

func (f *fakeWebhooks) find(id uuid.UUID) *model.WebhookEvent {
	for _, ev := range f.events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

func (f *fakeWebhooks) MarkProcessed(_ context.Context, id uuid.UUID, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev := f.find(id); ev != nil {
		ev.Status = model.WebhookStatusProcessed
		ev.Outcome = outcome
	}
	return nil
}

func (f *fakeWebhooks) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev := f.find(id); ev != nil && ev.Status != model.WebhookStatusProcessed {
		ev.Status = model.WebhookStatusFailed
		ev.ProcessingError = msg
	}
	return nil
}

func (f *fakeWebhooks) RecordMalformed(_ context.Context, payload []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.malformed = append(f.malformed, payload)
	return nil
}

func (f *fakeWebhooks) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events) + len(f.malformed)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderPaidEvent
}

func (f *fakePublisher) PublishOrderPaid(_ context.Context, ev events.OrderPaidEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeRecovery struct {
	mu      sync.Mutex
	intents []string
}

func (f *fakeRecovery) EnqueueRecoverIntent(_ context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intentID)
	return nil
}
