package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a unit of work to be processed by the Dispatcher.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Key selects the worker. Tasks with the same key run one at a time in
	// submission order.
	Key() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// FuncTask adapts a function to the Task interface.
type FuncTask struct {
	id       uuid.UUID
	key      uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
}

var _ Task = (*FuncTask)(nil)

// NewFuncTask creates a task that runs fn on the worker owning key.
func NewFuncTask(key uuid.UUID, taskType string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: domain.NewID(), key: key, taskType: taskType, fn: fn}
}

// ID implements Task.
func (t *FuncTask) ID() uuid.UUID { return t.id }

// Key implements Task.
func (t *FuncTask) Key() uuid.UUID { return t.key }

// Type implements Task.
func (t *FuncTask) Type() string { return t.taskType }

// Execute implements Task.
func (t *FuncTask) Execute(ctx context.Context) error { return t.fn(ctx) }

// Future tracks a submitted task until it finishes.
type Future struct {
	taskID uuid.UUID
	done   chan struct{}

	mu     sync.Mutex
	status TaskStatus
	err    error
}

func newFuture(taskID uuid.UUID) *Future {
	return &Future{taskID: taskID, done: make(chan struct{}), status: TaskStatusPending}
}

// TaskID returns the ID of the tracked task.
func (f *Future) TaskID() uuid.UUID { return f.taskID }

// Status returns the task's current status.
func (f *Future) Status() TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Done is closed when the task has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the task finishes or ctx is done. Cancelling ctx stops
// the wait only; the task itself still runs to completion.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Future) setStatus(status TaskStatus) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *Future) complete(err error) {
	f.mu.Lock()
	f.err = err
	if err != nil {
		f.status = TaskStatusFailed
	} else {
		f.status = TaskStatusCompleted
	}
	f.mu.Unlock()
	close(f.done)
}
