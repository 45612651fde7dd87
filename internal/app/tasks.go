package app

import (
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/metrics"
)

// Tasks runs fire-and-forget persistence writes on a bounded pool.
// Contract: no ordering, no retry. A failed or dropped task is logged
// and counted, never surfaced to any client.
type Tasks struct {
	pool *ants.Pool
}

func NewTasks(workers int) (*Tasks, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Tasks{pool: pool}, nil
}

func (t *Tasks) Release() {
	t.pool.Release()
}

// Submit schedules fn. name identifies the task in logs.
func (t *Tasks) Submit(name string, fn func() error) {
	err := t.pool.Submit(func() {
		if err := fn(); err != nil {
			metrics.BackgroundWriteFailures.Inc()
			log.Error().Err(err).Str("module", "app.tasks").Str("task", name).Msg("background write failed")
		}
	})
	if err != nil {
		// Pool saturated or released; same contract as a failed write.
		metrics.BackgroundWriteFailures.Inc()
		log.Error().Err(err).Str("module", "app.tasks").Str("task", name).Msg("background task dropped")
	}
}
