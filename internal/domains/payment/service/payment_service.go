package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"roastery-backend/internal/domains/payment/gateway"
	"roastery-backend/internal/domains/payment/model"
	repo "roastery-backend/internal/domains/payment/repository"
	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/infrastructure/events"
	"roastery-backend/internal/infrastructure/metrics"
	"roastery-backend/pkg/database"
)

// Options điều chỉnh timeout / retry của paymentService
type Options struct {
	DefaultCurrency  string
	ProcessorTimeout time.Duration
	Retry            database.RetryPolicy
	SweepRPS         float64
}

func (o *Options) setDefaults() {
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = "aed"
	}
	if o.ProcessorTimeout <= 0 {
		o.ProcessorTimeout = 10 * time.Second
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = database.DefaultRetryPolicy
	}
}

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	processor  gateway.Processor
	intents    repo.IntentRepository
	reconciler repo.ReconcileRepository
	webhooks   repo.WebhookRepository

	publisher events.Publisher
	recovery  RecoveryScheduler
	metrics   *metrics.Metrics
	opts      Options
	now       func() time.Time
}

func NewPaymentService(
	processor gateway.Processor,
	intents repo.IntentRepository,
	reconciler repo.ReconcileRepository,
	webhooks repo.WebhookRepository,
	publisher events.Publisher,
	recovery RecoveryScheduler,
	m *metrics.Metrics,
	opts Options,
) PaymentService {
	opts.setDefaults()
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &paymentService{
		processor:  processor,
		intents:    intents,
		reconciler: reconciler,
		webhooks:   webhooks,
		publisher:  publisher,
		recovery:   recovery,
		metrics:    m,
		opts:       opts,
		now:        time.Now,
	}
}

// =====================================================
// CREATE INTENT
// =====================================================

// CreateIntent
//
// Flow:
// 1. amount <= 0 -> ErrInvalidAmount, không gọi processor
// 2. validate input + encode snapshot vào metadata
// 3. gọi processor (có timeout)
// 4. lưu IntentRef(created)
func (s *paymentService) CreateIntent(
	ctx context.Context,
	principal *user.Principal,
	req model.CreateIntentRequest,
) (*model.CreateIntentResponse, error) {
	// 1. AMOUNT
	if req.Amount <= 0 {
		return nil, model.NewInvalidAmountError(req.Amount)
	}

	// 2. INPUT
	req.Currency = model.NormalizeCurrency(req.Currency)
	if req.Currency == "" {
		req.Currency = s.opts.DefaultCurrency
	}
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	var userID *uuid.UUID
	if principal != nil {
		id := principal.UserID
		userID = &id
	}

	meta, err := model.EncodeMetadata(model.CheckoutSnapshot{
		Customer: req.Customer,
		Shipping: req.Shipping,
		Items:    req.Items,
	}, userID)
	if err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	// 3. PROCESSOR
	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProcessorTimeout)
	defer cancel()

	started := time.Now()
	intent, err := s.processor.CreateIntent(callCtx, gateway.CreateIntentParams{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Metadata:       meta,
		ReceiptEmail:   req.Customer.Email,
		IdempotencyKey: uuid.NewString(),
	})
	s.metrics.ProcessorCall("create_intent", started, err)
	if err != nil {
		log.Error().Err(err).Int64("amount", req.Amount).Str("currency", req.Currency).Msg("processor create intent failed")
		return nil, model.NewUpstreamError("create intent", err)
	}

	// 4. INTENT REF
	ref := &model.IntentRef{
		IntentID: intent.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   model.IntentStatusCreated,
		UserID:   userID,
	}
	if err := database.Retry(ctx, s.opts.Retry, func(ctx context.Context) error {
		return s.intents.Create(ctx, ref)
	}); err != nil {
		return nil, fmt.Errorf("store intent ref %s: %w", intent.ID, err)
	}

	log.Info().
		Str("intent_id", intent.ID).
		Int64("amount", req.Amount).
		Str("currency", req.Currency).
		Bool("guest", userID == nil).
		Msg("payment intent created")

	return &model.CreateIntentResponse{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
	}, nil
}

// =====================================================
// ADMIN LOOKUP
// =====================================================

func (s *paymentService) GetPayment(ctx context.Context, intentID string) (*model.PaymentDetail, error) {
	res, err := s.reconciler.FindByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			return nil, model.NewPaymentNotFoundError(intentID)
		}
		return nil, err
	}
	return &model.PaymentDetail{Payment: res.Payment, Order: res.Order}, nil
}

// =====================================================
// RECOVERY
// =====================================================

func (s *paymentService) RecoverMissing(ctx context.Context, intentID string) (*model.ConstructResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, model.NewInvalidInputError(errors.New("intent id is required"))
	}
	return s.recoverIntent(ctx, model.SourceRecovery, intentID)
}

func (s *paymentService) recoverIntent(ctx context.Context, source, intentID string) (*model.ConstructResult, error) {
	intent, err := s.retrieve(ctx, intentID)
	if err != nil {
		if errors.Is(err, model.ErrIntentNotFound) {
			return nil, model.NewIntentNotFoundError(intentID)
		}
		return nil, model.NewUpstreamError("retrieve intent", err)
	}

	if !intent.Succeeded() {
		return nil, model.NewIntentNotSucceededError(intentID, intent.Status)
	}
	return s.construct(ctx, source, intent)
}

// SweepStuckIntents: intent ref còn created quá lâu nghĩa là webhook bị mất hoặc khách bỏ ngang.
// Hỏi processor từng cái (giới hạn tốc độ) rồi recover hoặc abandon.
func (s *paymentService) SweepStuckIntents(ctx context.Context, olderThan time.Duration, limit int) (*model.SweepResult, error) {
	refs, err := s.intents.ListStale(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale intents: %w", err)
	}

	pace := rate.Inf
	if s.opts.SweepRPS > 0 {
		pace = rate.Limit(s.opts.SweepRPS)
	}
	limiter := rate.NewLimiter(pace, 1)

	result := &model.SweepResult{}
	for _, ref := range refs {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}
		result.Checked++

		intent, err := s.retrieve(ctx, ref.IntentID)
		if err != nil && !errors.Is(err, model.ErrIntentNotFound) {
			result.Failed++
			log.Warn().Err(err).Str("intent_id", ref.IntentID).Msg("sweep: retrieve intent failed")
			continue
		}

		switch {
		case err != nil, intent.Status == model.ProcessorStatusCanceled:
			if s.abandon(ctx, ref.IntentID) {
				result.Abandoned++
			}

		case intent.Succeeded():
			if _, err := s.construct(ctx, model.SourceSweep, intent); err != nil {
				result.Failed++
				log.Error().Err(err).Str("intent_id", ref.IntentID).Msg("sweep: construct order failed")
				continue
			}
			result.Recovered++

		default:
			result.Pending++
		}
	}

	s.metrics.SweepRecovered(result.Recovered)
	log.Info().
		Int("checked", result.Checked).
		Int("recovered", result.Recovered).
		Int("abandoned", result.Abandoned).
		Int("pending", result.Pending).
		Int("failed", result.Failed).
		Msg("stuck intent sweep finished")

	return result, nil
}

// =====================================================
// SHARED HELPERS
// =====================================================

// construct là construction step dùng chung cho webhook, recovery và sweep
func (s *paymentService) construct(ctx context.Context, source string, intent *model.ProcessorIntent) (*model.ConstructResult, error) {
	snap, userID, err := model.DecodeMetadata(intent.Metadata)
	if err != nil {
		return nil, model.NewMalformedNotificationError(err.Error())
	}

	s.enrichCard(ctx, intent)

	in := model.ConstructInput{
		IntentID: intent.ID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		UserID:   userID,
		Snapshot: snap,
		Method:   intent.Method,
		Brand:    intent.Brand,
		Last4:    intent.Last4,
	}

	var res *model.ConstructResult
	err = database.Retry(ctx, s.opts.Retry, func(ctx context.Context) error {
		var cErr error
		res, cErr = s.reconciler.ConstructPaidOrder(ctx, in)
		return cErr
	})
	if err != nil {
		return nil, fmt.Errorf("construct order for %s: %w", intent.ID, err)
	}

	s.metrics.ReconcileOutcome(source, res.Outcome)

	if res.Outcome == model.OutcomeCreated {
		log.Info().
			Str("source", source).
			Str("intent_id", intent.ID).
			Str("order_id", res.Order.ID.String()).
			Str("order_number", res.Order.OrderNumber).
			Str("total", res.Order.Total.StringFixed(2)).
			Msg("paid order created")
		s.publishOrderPaid(ctx, res)
	} else {
		log.Info().Str("source", source).Str("intent_id", intent.ID).Msg("intent already reconciled")
	}
	return res, nil
}

// enrichCard: notification chỉ có id của latest_charge; đọc lại intent để lấy brand/last4.
// Lỗi ở đây không chặn việc tạo order.
func (s *paymentService) enrichCard(ctx context.Context, intent *model.ProcessorIntent) {
	if intent.Brand != "" || intent.ChargeID == "" {
		return
	}

	full, err := s.retrieve(ctx, intent.ID)
	if err != nil {
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("card details unavailable")
		return
	}
	if full.Method != "" {
		intent.Method = full.Method
	}
	intent.Brand = full.Brand
	intent.Last4 = full.Last4
}

func (s *paymentService) retrieve(ctx context.Context, intentID string) (*model.ProcessorIntent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProcessorTimeout)
	defer cancel()

	started := time.Now()
	intent, err := s.processor.RetrieveIntent(callCtx, intentID)
	s.metrics.ProcessorCall("retrieve_intent", started, err)
	return intent, err
}

func (s *paymentService) abandon(ctx context.Context, intentID string) bool {
	var changed bool
	err := database.Retry(ctx, s.opts.Retry, func(ctx context.Context) error {
		var aErr error
		changed, aErr = s.intents.MarkAbandoned(ctx, intentID)
		return aErr
	})
	if err != nil {
		log.Error().Err(err).Str("intent_id", intentID).Msg("failed to mark intent abandoned")
		return false
	}
	return changed
}

// publishOrderPaid chạy sau commit; lỗi chỉ log + metric
func (s *paymentService) publishOrderPaid(ctx context.Context, res *model.ConstructResult) {
	o := res.Order
	ev := events.OrderPaidEvent{
		OrderID:         o.ID.String(),
		OrderNumber:     o.OrderNumber,
		PaymentIntentID: o.PaymentIntentID,
		CustomerEmail:   o.Customer.Email,
		Total:           o.Total,
		Currency:        o.Currency,
		PaidAt:          o.CreatedAt,
	}
	if o.UserID != nil {
		ev.UserID = o.UserID.String()
	}

	if err := s.publisher.PublishOrderPaid(ctx, ev); err != nil {
		s.metrics.EventPublishFailed()
		log.Warn().Err(err).Str("order_id", ev.OrderID).Msg("failed to publish order.paid")
	}
}

func (s *paymentService) scheduleRecovery(ctx context.Context, intentID string) {
	if s.recovery == nil || intentID == "" {
		return
	}
	if err := s.recovery.EnqueueRecoverIntent(ctx, intentID); err != nil {
		log.Error().Err(err).Str("intent_id", intentID).Msg("failed to schedule intent recovery")
	}
}
