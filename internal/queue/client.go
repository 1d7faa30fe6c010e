package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docintake/internal/config"
)

type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueScratchSweep(cfg config.ScratchConfig) error {
	task, err := NewScratchSweepTask(cfg)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeScratchSweep, err)
	}
	return nil
}

// NewScratchSweepTask builds the sweep task for both one-off enqueue and the
// periodic scheduler.
func NewScratchSweepTask(cfg config.ScratchConfig) (*asynq.Task, error) {
	data, err := json.Marshal(ScratchSweepPayload{Dir: cfg.Dir, MaxAgeSeconds: int64(cfg.MaxAge / time.Second)})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeScratchSweep, data, asynq.MaxRetry(1), asynq.Timeout(2*time.Minute), asynq.Queue("low")), nil
}
