package crawler

import (
	"context"
	"sync"
)

// Job is one unit of scheduled work, typically a seed's whole descent.
type Job func(ctx context.Context)

// Scheduler is a fixed-size worker pool fed through a bounded queue.
type Scheduler struct {
	Workers int
	Queue   chan Job
	ctx     context.Context
	wg      sync.WaitGroup
	once    sync.Once
}

func NewScheduler(ctx context.Context, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		Workers: workers,
		Queue:   make(chan Job, workers*10),
		ctx:     ctx,
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Submit queues job, blocking while the queue is full. It returns the
// context error if the run is cancelled first.
func (s *Scheduler) Submit(job Job) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case s.Queue <- job:
		return nil
	}
}

// CloseQueue stops accepting jobs. Calling it more than once is safe.
func (s *Scheduler) CloseQueue() {
	s.once.Do(func() { close(s.Queue) })
}

// Wait closes the queue and blocks until every queued job has finished.
func (s *Scheduler) Wait() {
	s.CloseQueue()
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for job := range s.Queue {
		if s.ctx.Err() != nil {
			// drain without running
			continue
		}
		job(s.ctx)
	}
}
