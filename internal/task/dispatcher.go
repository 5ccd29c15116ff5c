package task

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DispatcherConfig holds configuration options for the dispatcher
type DispatcherConfig struct {
	// Workers is the number of shards, each served by one goroutine.
	// If zero or negative, defaults to 1
	Workers int

	// QueueSize is the buffer size of each shard's queue.
	// If zero or negative, defaults to 1
	QueueSize int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 4, QueueSize: 64}
}

// Dispatcher runs tasks on a fixed set of workers. A task's key always maps
// to the same worker, so tasks sharing a key execute sequentially in
// submission order while different keys proceed in parallel.
type Dispatcher struct {
	queues []*TaskQueue
	wg     sync.WaitGroup
	logger *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// NewDispatcher creates a new dispatcher with the specified configuration
func NewDispatcher(config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "task_dispatcher")

	workers := config.Workers
	if workers <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.Workers,
			"default_count", 1)
		workers = 1
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	queues := make([]*TaskQueue, workers)
	for i := range queues {
		queues[i] = NewTaskQueue(queueSize, logger.With("worker_id", i))
	}

	return &Dispatcher{queues: queues, logger: logger}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (d *Dispatcher) SetErrorHandler(handler func(task Task, err error)) {
	d.errorHandler = handler
}

// Workers returns the number of workers.
func (d *Dispatcher) Workers() int {
	return len(d.queues)
}

// Start launches the worker goroutines. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i, q := range d.queues {
			d.wg.Add(1)
			go d.worker(i, q)
		}
		d.logger.Info("dispatcher started", "workers", len(d.queues))
	})
}

// Stop closes every queue and waits for queued tasks to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		for _, q := range d.queues {
			q.Close()
		}
		d.wg.Wait()
		d.logger.Info("dispatcher stopped")
	})
}

// Submit queues a task on the worker owning its key.
// Returns ErrQueueFull if that worker's queue is full and ErrQueueClosed
// after Stop.
func (d *Dispatcher) Submit(task Task) (*Future, error) {
	q := d.queues[ShardFor(task.Key(), len(d.queues))]
	future, err := q.Enqueue(task)
	if err != nil {
		return nil, fmt.Errorf("failed to submit task %s: %w", task.ID(), err)
	}
	return future, nil
}

// ShardFor maps a key onto one of n workers.
func ShardFor(key uuid.UUID, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(key[:])
	return int(h.Sum32() % uint32(n))
}

func (d *Dispatcher) worker(id int, q *TaskQueue) {
	defer d.wg.Done()
	d.logger.Debug("starting worker", "worker_id", id)

	for qt := range q.channel() {
		d.process(id, qt)
	}

	d.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}

func (d *Dispatcher) process(workerID int, qt queuedTask) {
	log := d.logger.With(
		"task_id", qt.task.ID(),
		"task_type", qt.task.Type(),
		"worker_id", workerID,
	)

	qt.future.setStatus(TaskStatusProcessing)
	err := d.execute(qt.task)
	if err != nil {
		log.Error("task execution failed", "error", err)
		if d.errorHandler != nil {
			d.errorHandler(qt.task, err)
		}
	} else {
		log.Debug("task completed successfully")
	}
	qt.future.complete(err)
}

// execute runs a task, converting a panic into an error so that one bad
// task cannot take down its worker.
func (d *Dispatcher) execute(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Execute(context.Background())
}
