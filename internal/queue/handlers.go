package queue

import (
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docintake/internal/config"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// NewServer builds the worker server. Maintenance tasks run on the low queue.
func NewServer(cfg config.RedisConfig, concurrency int) *asynq.Server {
	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 3,
			"low":     1,
		},
	})
}

// NewScheduler registers the periodic scratch sweep.
func NewScheduler(redis config.RedisConfig, scratch config.ScratchConfig) (*asynq.Scheduler, error) {
	s := asynq.NewScheduler(RedisOpt(redis), nil)
	task, err := NewScratchSweepTask(scratch)
	if err != nil {
		return nil, err
	}
	if _, err := s.Register(ScratchSweepSchedule, task); err != nil {
		return nil, err
	}
	return s, nil
}
