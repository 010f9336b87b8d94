package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"roastery-backend/internal/shared"
)

// Enqueuer là phần của asynq.Client mà service cần (mock được trong tests)
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RecoveryQueue đẩy RecoverMissing cho một intent vào hàng đợi
type RecoveryQueue struct {
	client Enqueuer
	delay  time.Duration
}

func NewRecoveryQueue(client Enqueuer, delay time.Duration) *RecoveryQueue {
	return &RecoveryQueue{client: client, delay: delay}
}

// EnqueueRecoverIntent schedules a retry of one intent after the configured delay.
// The task id is derived from the intent so repeated failures collapse into one task.
func (q *RecoveryQueue) EnqueueRecoverIntent(ctx context.Context, intentID string) error {
	payload, err := json.Marshal(shared.RecoverIntentPayload{IntentID: intentID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRecoverIntent, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueHigh),
		asynq.ProcessIn(q.delay),
		asynq.MaxRetry(5),
		asynq.TaskID("recover:"+intentID),
		asynq.Timeout(time.Minute),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue recover intent %s: %w", intentID, err)
	}
	return nil
}
