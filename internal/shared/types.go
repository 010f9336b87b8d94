package shared

// Asynq task types
const (
	TypeRecoverStuckIntents = "payment:recover_stuck_intents"
	TypeRecoverIntent       = "payment:recover_intent"
)

// Asynq queues, weighted in the worker config
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// RecoverStuckIntentsPayload là payload của scheduled sweep
type RecoverStuckIntentsPayload struct {
	MinAgeSeconds int `json:"min_age_seconds"`
	BatchSize     int `json:"batch_size"`
}

// RecoverIntentPayload triggers RecoverMissing for a single intent
type RecoverIntentPayload struct {
	IntentID string `json:"intent_id"`
}
