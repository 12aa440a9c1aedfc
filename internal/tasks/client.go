package tasks

import (
	"encoding/json"

	"packvault/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskClient handles task enqueuing with improved error handling and context support
type TaskClient struct {
	client       *asynq.Client
	logger       *logger.Logger
	redisOptions *redis.Options
	redisClient  *redis.Client
}

func (c *TaskClient) GetClient() *asynq.Client {
	return c.client
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	redisClient := redis.NewClient(
		&redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
	)

	return &TaskClient{
		client: asynq.NewClient(redisOpt),
		redisOptions: &redis.Options{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		redisClient: redisClient,
		logger:      logger.New("TASKS"),
	}
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}

// PaymentRetryPayload carries the provider reference and event kind of a
// webhook whose inline settlement failed.
type PaymentRetryPayload struct {
	ProviderRef string `json:"provider_ref"`
	Event       string `json:"event"` // "confirmed" or "failed"
}

// EnqueuePaymentRetry schedules an out-of-band retry of a payment
// webhook settlement.
func (c *TaskClient) EnqueuePaymentRetry(providerRef, event string) error {
	payload, err := json.Marshal(PaymentRetryPayload{ProviderRef: providerRef, Event: event})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePaymentRetry, payload)
	info, err := c.client.Enqueue(task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(RetryMax),
		asynq.Timeout(TimeoutShort),
	)
	if err != nil {
		return c.logger.Error("Failed to enqueue payment retry", err)
	}

	c.logger.Info("Enqueued payment retry %s for ref %s", info.ID, providerRef)
	return nil
}

// EnqueuePayoutSweep queues an extra payout sweep into the nightly batch
// window instead of running it mid-day.
func (c *TaskClient) EnqueuePayoutSweep() error {
	task := asynq.NewTask(TaskTypePayoutSweep, nil)
	info, err := c.client.Enqueue(task,
		asynq.Queue(QueueLow),
		CronSchedule("0 9 * * *"),
	)
	if err != nil {
		return c.logger.Error("Failed to enqueue payout sweep", err)
	}

	c.logger.Info("Payout sweep %s scheduled for %s", info.ID, info.NextProcessAt)
	return nil
}
