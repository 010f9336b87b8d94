package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roastery-backend/internal/shared"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func TestRecoveryQueue_Enqueue(t *testing.T) {
	fe := &fakeEnqueuer{}
	q := NewRecoveryQueue(fe, 30*time.Second)

	require.NoError(t, q.EnqueueRecoverIntent(context.Background(), "pi_123"))
	require.Len(t, fe.tasks, 1)
	assert.Equal(t, shared.TypeRecoverIntent, fe.tasks[0].Type())

	var p shared.RecoverIntentPayload
	require.NoError(t, json.Unmarshal(fe.tasks[0].Payload(), &p))
	assert.Equal(t, "pi_123", p.IntentID)
}

func TestRecoveryQueue_DuplicateTaskIsNotAnError(t *testing.T) {
	q := NewRecoveryQueue(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}, time.Second)
	assert.NoError(t, q.EnqueueRecoverIntent(context.Background(), "pi_123"))
}

func TestRecoveryQueue_Error(t *testing.T) {
	q := NewRecoveryQueue(&fakeEnqueuer{err: errors.New("redis down")}, time.Second)
	err := q.EnqueueRecoverIntent(context.Background(), "pi_123")
	assert.ErrorContains(t, err, "redis down")
}
