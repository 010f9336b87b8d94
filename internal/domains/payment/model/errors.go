package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrInvalidAmount         = errors.New("amount must be a positive number of minor units")
	ErrInvalidInput          = errors.New("invalid checkout input")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrMalformedNotification = errors.New("malformed processor notification")
	ErrUpstreamFailure       = errors.New("payment processor unavailable")
	ErrIntentNotSucceeded    = errors.New("payment intent has not succeeded")
	ErrIntentNotFound        = errors.New("payment intent not found")
	ErrPaymentNotFound       = errors.New("payment record not found")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

// PaymentError mang mã lỗi trả về client; Err là sentinel ở trên
// (hoặc lỗi gốc) để errors.Is vẫn hoạt động.
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewInvalidAmountError(amount int64) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid amount: %d", amount),
		ErrInvalidAmount,
	)
}

// NewInvalidInputError giữ lại cause (vd validation.Errors) để handler trả details
func NewInvalidInputError(cause error) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidInput,
		"Invalid checkout input",
		errors.Join(ErrInvalidInput, cause),
	)
}

func NewInvalidSignatureError(cause error) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidSignature,
		"Webhook signature verification failed",
		errors.Join(ErrInvalidSignature, cause),
	)
}

func NewMalformedNotificationError(reason string) *PaymentError {
	return NewPaymentError(
		ErrCodeMalformedNotification,
		reason,
		ErrMalformedNotification,
	)
}

func NewUpstreamError(operation string, cause error) *PaymentError {
	return NewPaymentError(
		ErrCodeUpstreamFailure,
		fmt.Sprintf("Payment processor %s failed", operation),
		errors.Join(ErrUpstreamFailure, cause),
	)
}

func NewIntentNotSucceededError(intentID, status string) *PaymentError {
	return NewPaymentError(
		ErrCodeIntentNotSucceeded,
		fmt.Sprintf("Intent %s is %s", intentID, status),
		ErrIntentNotSucceeded,
	)
}

func NewIntentNotFoundError(intentID string) *PaymentError {
	return NewPaymentError(
		ErrCodeIntentNotFound,
		fmt.Sprintf("Payment intent not found: %s", intentID),
		ErrIntentNotFound,
	)
}

func NewPaymentNotFoundError(intentID string) *PaymentError {
	return NewPaymentError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("No payment recorded for intent %s", intentID),
		ErrPaymentNotFound,
	)
}
