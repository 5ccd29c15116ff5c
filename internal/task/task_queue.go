package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

type queuedTask struct {
	task   Task
	future *Future
}

// TaskQueue is a bounded FIFO of tasks consumed by a single worker.
type TaskQueue struct {
	mu     sync.Mutex
	tasks  chan queuedTask
	logger *slog.Logger
	closed bool
}

// NewTaskQueue creates a new task queue with the specified buffer size
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	return &TaskQueue{
		tasks:  make(chan queuedTask, size),
		logger: logger,
	}
}

// Enqueue adds a task to the queue and returns its future.
// Returns an error if the queue is full or closed
func (q *TaskQueue) Enqueue(task Task) (*Future, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	future := newFuture(task.ID())
	select {
	case q.tasks <- queuedTask{task: task, future: future}:
		q.logger.Debug("task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(q.tasks),
			"queue_cap", cap(q.tasks))
		return future, nil
	default:
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Close closes the task queue, preventing further task submission.
// Tasks already queued are still delivered.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

func (q *TaskQueue) channel() <-chan queuedTask {
	return q.tasks
}
