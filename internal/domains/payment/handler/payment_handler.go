package handler

import (
	"errors"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/domains/payment/service"
	"roastery-backend/internal/shared/middleware"
	"roastery-backend/internal/shared/response"
)

const (
	// SignatureHeader là header processor dùng để ký webhook
	SignatureHeader = "Stripe-Signature"

	maxWebhookBody = 256 << 10
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// =====================================================
// CHECKOUT
// =====================================================

// CreateIntent xử lý POST /checkout/intent (guest hoặc đã đăng nhập)
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req model.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", resp)
}

// =====================================================
// PROCESSOR WEBHOOK
// =====================================================

// Webhook xử lý POST /webhooks/processor.
// Body phải đọc raw: chữ ký tính trên đúng bytes processor gửi.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		response.BadRequest(c, "Cannot read body")
		return
	}
	if len(body) > maxWebhookBody {
		response.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Webhook body too large")
		return
	}

	res, err := h.paymentService.Reconcile(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		h.handleError(c, err)
		return
	}

	// processor chỉ cần 2xx
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": res.Outcome})
}

// =====================================================
// ADMIN
// =====================================================

// RecoverIntent xử lý POST /admin/payments/recover
func (h *PaymentHandler) RecoverIntent(c *gin.Context) {
	var req model.RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.handleError(c, err)
		return
	}

	res, err := h.paymentService.RecoverMissing(c.Request.Context(), req.IntentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if actor, ok := middleware.GetPrincipal(c); ok {
		log.Info().
			Str("actor_id", actor.UserID.String()).
			Str("intent_id", req.IntentID).
			Str("outcome", res.Outcome).
			Msg("manual intent recovery")
	}
	response.Success(c, http.StatusOK, "", model.NewReconcileResponse(req.IntentID, res))
}

// GetPayment xử lý GET /admin/payments/:intent_id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	detail, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("intent_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", detail)
}

// =====================================================
// HELPERS
// =====================================================

func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid checkout input", verrs)
		return
	}

	var perr *model.PaymentError
	if errors.As(err, &perr) {
		switch perr.Code {
		case model.ErrCodeInvalidAmount,
			model.ErrCodeInvalidInput,
			model.ErrCodeInvalidSignature,
			model.ErrCodeMalformedNotification:
			response.Error(c, http.StatusBadRequest, perr.Code, perr.Message)
			return

		case model.ErrCodeIntentNotFound, model.ErrCodePaymentNotFound:
			response.Error(c, http.StatusNotFound, perr.Code, perr.Message)
			return

		case model.ErrCodeIntentNotSucceeded:
			response.Error(c, http.StatusConflict, perr.Code, perr.Message)
			return

		case model.ErrCodeUpstreamFailure:
			response.Error(c, http.StatusInternalServerError, perr.Code, perr.Message)
			return
		}
	}

	// store failure: 500 để processor gửi lại
	log.Error().Err(err).Str("request_id", c.GetString("request_id")).Str("path", c.FullPath()).Msg("payment request failed")
	response.InternalServerError(c, "Internal server error")
}
