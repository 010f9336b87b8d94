package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"roastery-backend/internal/config"
	"roastery-backend/internal/shared"
	"roastery-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	recovery  config.RecoveryConfig
}

func NewScheduler(redis asynq.RedisClientOpt, recovery config.RecoveryConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		recovery:  recovery,
	}
}

func (s *Scheduler) RegisterRecoveryJobs() error {
	return s.registerRecoverStuckIntentsJob()
}

// ================================================
// Sweep stuck payment intents (RECOVERY_SWEEP_CRON)
// ================================================
// Webhook có thể bị mất: job này tìm intents cũ hơn MinAge chưa reconcile
// và hỏi lại processor.
func (s *Scheduler) registerRecoverStuckIntentsJob() error {
	payload, err := json.Marshal(shared.RecoverStuckIntentsPayload{
		MinAgeSeconds: int(s.recovery.MinAge.Seconds()),
		BatchSize:     s.recovery.BatchSize,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRecoverStuckIntents, payload)

	_, err = s.scheduler.Register(
		s.recovery.Cron,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		// không chạy chồng nếu lần trước chưa xong
		asynq.Unique(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RecoverStuckIntents job", err)
		return err
	}

	logger.Info("✓ Registered RecoverStuckIntents", map[string]interface{}{
		"cron":       s.recovery.Cron,
		"batch_size": s.recovery.BatchSize,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
