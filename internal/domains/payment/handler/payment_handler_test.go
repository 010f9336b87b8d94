package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	orderModel "roastery-backend/internal/domains/order/model"
	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/shared/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

func newRouter(svc *mockPaymentService, principal *user.Principal) *gin.Engine {
	h := NewPaymentHandler(svc)
	r := gin.New()
	if principal != nil {
		r.Use(func(c *gin.Context) { middleware.SetPrincipal(c, principal) })
	}
	r.POST("/checkout/intent", h.CreateIntent)
	r.POST("/webhooks/processor", h.Webhook)
	r.POST("/admin/payments/recover", h.RecoverIntent)
	r.GET("/admin/payments/:intent_id", h.GetPayment)
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIntent_Handler(t *testing.T) {
	body := `{"amount":4999,"currency":"aed","customer":{"name":"Omar","email":"omar@roastery.test"},
		"shipping":{"line1":"Villa 4","city":"Dubai","country":"AE"},
		"items":[{"product_id":"p1","name":"Colombia Huila","quantity":1,"unit_amount":4999}]}`

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, http.StatusOK, "pi_1_secret"},
		{"invalid amount", model.NewInvalidAmountError(0), http.StatusBadRequest, model.ErrCodeInvalidAmount},
		{"validation", model.NewInvalidInputError(validation.Errors{"items": errors.New("cannot be blank")}), http.StatusBadRequest, "items"},
		{"upstream", model.NewUpstreamError("create intent", errors.New("timeout")), http.StatusInternalServerError, model.ErrCodeUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{}
			var resp *model.CreateIntentResponse
			if tt.err == nil {
				resp = &model.CreateIntentResponse{ClientSecret: "pi_1_secret", IntentID: "pi_1"}
			}
			svc.On("CreateIntent", mock.Anything, (*user.Principal)(nil), mock.MatchedBy(func(req model.CreateIntentRequest) bool {
				return req.Amount == 4999 && req.Customer.Email == "omar@roastery.test" && len(req.Items) == 1
			})).Return(resp, tt.err)

			w := do(newRouter(svc, nil), http.MethodPost, "/checkout/intent", body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateIntent_PassesPrincipal(t *testing.T) {
	svc := &mockPaymentService{}
	p := &user.Principal{UserID: uuid.New(), Role: user.RoleCustomer}
	svc.On("CreateIntent", mock.Anything, p, mock.Anything).
		Return(&model.CreateIntentResponse{ClientSecret: "s", IntentID: "pi_2"}, nil)

	w := do(newRouter(svc, p), http.MethodPost, "/checkout/intent", `{"amount":100}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestWebhook_StatusMapping(t *testing.T) {
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`

	tests := []struct {
		name   string
		res    *model.ConstructResult
		err    error
		status int
	}{
		{"created", &model.ConstructResult{Outcome: model.OutcomeCreated}, nil, http.StatusOK},
		{"duplicate", &model.ConstructResult{Outcome: model.OutcomeDuplicate}, nil, http.StatusOK},
		{"ignored", &model.ConstructResult{Outcome: model.OutcomeIgnored}, nil, http.StatusOK},
		{"bad signature", nil, model.NewInvalidSignatureError(errors.New("no match")), http.StatusBadRequest},
		{"malformed", nil, model.NewMalformedNotificationError("intent object missing"), http.StatusBadRequest},
		{"store failure", nil, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{}
			svc.On("Reconcile", mock.Anything, []byte(payload), "t=1,v1=ab").Return(tt.res, tt.err)

			w := do(newRouter(svc, nil), http.MethodPost, "/webhooks/processor", payload,
				map[string]string{SignatureHeader: "t=1,v1=ab"})
			assert.Equal(t, tt.status, w.Code)
			if tt.res != nil {
				assert.Contains(t, w.Body.String(), tt.res.Outcome)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	svc := &mockPaymentService{}
	w := do(newRouter(svc, nil), http.MethodPost, "/webhooks/processor", strings.Repeat("x", maxWebhookBody+1), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecoverIntent_Handler(t *testing.T) {
	admin := &user.Principal{UserID: uuid.New(), Role: user.RoleAdmin}
	order := &orderModel.Order{ID: uuid.New(), OrderNumber: "RST-260101-ABCDEF12"}

	tests := []struct {
		name   string
		body   string
		res    *model.ConstructResult
		err    error
		status int
	}{
		{"created", `{"intentId":"pi_1"}`, &model.ConstructResult{Outcome: model.OutcomeCreated, Order: order}, nil, http.StatusOK},
		{"not succeeded", `{"intentId":"pi_1"}`, nil, model.NewIntentNotSucceededError("pi_1", "processing"), http.StatusConflict},
		{"not found", `{"intentId":"pi_1"}`, nil, model.NewIntentNotFoundError("pi_1"), http.StatusNotFound},
		{"upstream", `{"intentId":"pi_1"}`, nil, model.NewUpstreamError("retrieve intent", errors.New("503")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{}
			svc.On("RecoverMissing", mock.Anything, "pi_1").Return(tt.res, tt.err)

			w := do(newRouter(svc, admin), http.MethodPost, "/admin/payments/recover", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.res != nil {
				assert.Contains(t, w.Body.String(), order.OrderNumber)
			}
		})
	}

	t.Run("missing intent id", func(t *testing.T) {
		svc := &mockPaymentService{}
		w := do(newRouter(svc, admin), http.MethodPost, "/admin/payments/recover", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "RecoverMissing", mock.Anything, mock.Anything)
	})
}

func TestGetPayment_Handler(t *testing.T) {
	svc := &mockPaymentService{}
	svc.On("GetPayment", mock.Anything, "pi_missing").Return(nil, model.NewPaymentNotFoundError("pi_missing"))
	svc.On("GetPayment", mock.Anything, "pi_1").Return(&model.PaymentDetail{
		Payment: &model.PaymentRecord{IntentID: "pi_1", Status: model.PaymentStatusSucceeded},
	}, nil)

	r := newRouter(svc, nil)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/admin/payments/pi_missing", "", nil).Code)

	w := do(r, http.MethodGet, "/admin/payments/pi_1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"succeeded"`)
}
