package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a deferred side effect. Its error is logged, never returned to the
// code that submitted it.
type Task func(ctx context.Context) error

// Config holds worker pool settings
type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single task run; zero means no limit
	Timeout time.Duration
}

// DefaultConfig returns default task queue configuration
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 256,
		Timeout:   time.Minute,
	}
}

type job struct {
	name string
	task Task
}

// Queue runs tasks outside the request path on a bounded worker pool
type Queue struct {
	cfg    Config
	logger *slog.Logger
	inline bool

	jobs    chan job
	pending sync.WaitGroup
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates a Queue and starts its workers
func New(cfg Config, logger *slog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	q := &Queue{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "tasks")),
		jobs:   make(chan job, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	return q
}

// NewSync creates a Queue that runs each task inline inside Submit
func NewSync(logger *slog.Logger) *Queue {
	return &Queue{
		logger: logger.With(slog.String("component", "tasks")),
		inline: true,
	}
}

// Submit schedules a task. Tasks submitted after Close, or while the queue is
// full, are dropped and logged.
func (q *Queue) Submit(name string, task Task) {
	if q.inline {
		q.run(job{name: name, task: task})
		return
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("task dropped, queue closed", slog.String("task", name))
		return
	}

	q.pending.Add(1)
	select {
	case q.jobs <- job{name: name, task: task}:
	default:
		q.pending.Done()
		q.logger.Warn("task dropped, queue full", slog.String("task", name))
	}
}

// Wait blocks until every submitted task has finished
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Close stops accepting tasks, drains what is queued and stops the workers
func (q *Queue) Close() {
	if q.inline {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.workers.Wait()
}

func (q *Queue) work() {
	defer q.workers.Done()
	for j := range q.jobs {
		q.run(j)
		q.pending.Done()
	}
}

func (q *Queue) run(j job) {
	ctx := context.Background()
	if q.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := q.safeRun(ctx, j)
	if err != nil {
		q.logger.Error("task failed",
			slog.String("task", j.name),
			slog.String("error", err.Error()),
		)
		return
	}

	q.logger.Debug("task completed",
		slog.String("task", j.name),
		slog.Duration("duration", time.Since(start)),
	)
}

func (q *Queue) safeRun(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.task(ctx)
}
