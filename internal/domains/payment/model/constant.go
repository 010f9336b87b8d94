package model

// =====================================================
// INTENT REF STATUS
// =====================================================
const (
	IntentStatusCreated    = "created"
	IntentStatusReconciled = "reconciled"
	IntentStatusAbandoned  = "abandoned"
)

// =====================================================
// PAYMENT RECORD STATUS
// =====================================================
const (
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
)

// =====================================================
// PROCESSOR INTENT STATUS (processor side)
// =====================================================
const (
	ProcessorStatusRequiresPaymentMethod = "requires_payment_method"
	ProcessorStatusRequiresConfirmation  = "requires_confirmation"
	ProcessorStatusRequiresAction        = "requires_action"
	ProcessorStatusProcessing            = "processing"
	ProcessorStatusSucceeded             = "succeeded"
	ProcessorStatusCanceled              = "canceled"
)

// =====================================================
// NOTIFICATION TYPES
// =====================================================
const (
	EventIntentSucceeded     = "payment_intent.succeeded"
	EventIntentPaymentFailed = "payment_intent.payment_failed"
	EventIntentCanceled      = "payment_intent.canceled"
	EventChargeRefunded      = "charge.refunded"
)

// =====================================================
// WEBHOOK LOG STATUS
// =====================================================
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
	WebhookStatusMalformed = "malformed"
)

// =====================================================
// RECONCILE OUTCOMES
// =====================================================
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeAbandoned = "abandoned"
	OutcomeRefunded  = "refunded"
	OutcomeIgnored   = "ignored"
)

// Nguồn gọi construction step, dùng cho metrics + log
const (
	SourceWebhook  = "webhook"
	SourceRecovery = "recovery"
	SourceSweep    = "sweep"
)

// =====================================================
// ERROR CODES
// =====================================================
const (
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeInvalidSignature      = "INVALID_SIGNATURE"
	ErrCodeMalformedNotification = "MALFORMED_NOTIFICATION"
	ErrCodeUpstreamFailure       = "UPSTREAM_FAILURE"
	ErrCodeIntentNotSucceeded    = "INTENT_NOT_SUCCEEDED"
	ErrCodeIntentNotFound        = "INTENT_NOT_FOUND"
	ErrCodePaymentNotFound       = "PAYMENT_NOT_FOUND"
)

// =====================================================
// METADATA LIMITS
// =====================================================
const (
	// processor giới hạn mỗi value 500 ký tự
	MetadataValueMaxLen = 500
	MetadataMaxKeys     = 40

	// minor units: mọi currency được hỗ trợ đều có 2 chữ số thập phân
	CurrencyExponent = 2
)
