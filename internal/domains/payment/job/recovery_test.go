package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/shared"
)

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, p *user.Principal, req model.CreateIntentRequest) (*model.CreateIntentResponse, error) {
	args := m.Called(ctx, p, req)
	resp, _ := args.Get(0).(*model.CreateIntentResponse)
	return resp, args.Error(1)
}

func (m *mockPaymentService) Reconcile(ctx context.Context, payload []byte, sig string) (*model.ConstructResult, error) {
	args := m.Called(ctx, payload, sig)
	res, _ := args.Get(0).(*model.ConstructResult)
	return res, args.Error(1)
}

func (m *mockPaymentService) RecoverMissing(ctx context.Context, intentID string) (*model.ConstructResult, error) {
	args := m.Called(ctx, intentID)
	res, _ := args.Get(0).(*model.ConstructResult)
	return res, args.Error(1)
}

func (m *mockPaymentService) SweepStuckIntents(ctx context.Context, olderThan time.Duration, limit int) (*model.SweepResult, error) {
	args := m.Called(ctx, olderThan, limit)
	res, _ := args.Get(0).(*model.SweepResult)
	return res, args.Error(1)
}

func (m *mockPaymentService) GetPayment(ctx context.Context, intentID string) (*model.PaymentDetail, error) {
	args := m.Called(ctx, intentID)
	res, _ := args.Get(0).(*model.PaymentDetail)
	return res, args.Error(1)
}

func task(t *testing.T, typ string, payload any) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, raw)
}

var sweepDefaults = shared.RecoverStuckIntentsPayload{MinAgeSeconds: 600, BatchSize: 50}

func TestRecoverStuckIntents_UsesPayload(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("SweepStuckIntents", mock.Anything, 2*time.Minute, 10).
		Return(&model.SweepResult{Checked: 3, Recovered: 1, Abandoned: 1, Pending: 1}, nil)

	h := NewRecoverStuckIntentsHandler(svc, sweepDefaults)
	err := h.ProcessTask(context.Background(), task(t, shared.TypeRecoverStuckIntents,
		shared.RecoverStuckIntentsPayload{MinAgeSeconds: 120, BatchSize: 10}))

	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestRecoverStuckIntents_FallsBackToDefaults(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("SweepStuckIntents", mock.Anything, 10*time.Minute, 50).Return(&model.SweepResult{}, nil).Twice()

	h := NewRecoverStuckIntentsHandler(svc, sweepDefaults)
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeRecoverStuckIntents, nil)))
	require.NoError(t, h.ProcessTask(context.Background(), task(t, shared.TypeRecoverStuckIntents,
		shared.RecoverStuckIntentsPayload{})))

	svc.AssertExpectations(t)
}

func TestRecoverStuckIntents_Errors(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("SweepStuckIntents", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	h := NewRecoverStuckIntentsHandler(svc, sweepDefaults)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeRecoverStuckIntents, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), task(t, shared.TypeRecoverStuckIntents, sweepDefaults))
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestRecoverIntent(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{name: "recovered"},
		{name: "not succeeded yet", err: model.NewIntentNotSucceededError("pi_1", "processing"), wantErr: true, skipRetry: true},
		{name: "unknown intent", err: model.NewIntentNotFoundError("pi_1"), wantErr: true, skipRetry: true},
		{name: "processor down", err: model.NewUpstreamError("retrieve intent", errors.New("timeout")), wantErr: true},
		{name: "store down", err: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			var res *model.ConstructResult
			if tt.err == nil {
				res = &model.ConstructResult{Outcome: model.OutcomeCreated}
			}
			svc.On("RecoverMissing", mock.Anything, "pi_1").Return(res, tt.err)

			h := NewRecoverIntentHandler(svc)
			err := h.ProcessTask(context.Background(), task(t, shared.TypeRecoverIntent,
				shared.RecoverIntentPayload{IntentID: "pi_1"}))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			svc.AssertExpectations(t)
		})
	}
}

func TestRecoverIntent_BadPayload(t *testing.T) {
	h := NewRecoverIntentHandler(new(mockPaymentService))
	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeRecoverIntent, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
