package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/task"
)

// TaskTypeSubmit is the dispatcher task type of queued review submissions.
const TaskTypeSubmit = "review.submit"

// QueuedService runs submissions on a task.Dispatcher keyed by card ID, so
// submissions for one card are applied in arrival order without blocking
// callers on the per-card lock.
type QueuedService struct {
	next       Service
	dispatcher *task.Dispatcher
}

var _ Service = (*QueuedService)(nil)

// NewQueuedService wraps next with a dispatcher. The dispatcher must be started.
func NewQueuedService(next Service, dispatcher *task.Dispatcher) *QueuedService {
	if next == nil {
		panic("review service cannot be nil")
	}
	if dispatcher == nil {
		panic("dispatcher cannot be nil")
	}
	return &QueuedService{next: next, dispatcher: dispatcher}
}

// Submit implements Service. It waits for the queued submission; if ctx is
// cancelled first the submission still completes in the background.
func (q *QueuedService) Submit(ctx context.Context, cardID uuid.UUID, success bool) (*Outcome, error) {
	detached := context.WithoutCancel(ctx)

	var outcome *Outcome
	future, err := q.SubmitAsync(detached, cardID, success, func(o *Outcome) { outcome = o })
	if err != nil {
		return nil, err
	}
	if err := future.Wait(ctx); err != nil {
		return nil, err
	}
	return outcome, nil
}

// SubmitAsync queues a submission and returns its future. onDone, if set,
// receives the outcome before the future completes.
func (q *QueuedService) SubmitAsync(ctx context.Context, cardID uuid.UUID, success bool, onDone func(*Outcome)) (*task.Future, error) {
	t := task.NewFuncTask(cardID, TaskTypeSubmit, func(context.Context) error {
		outcome, err := q.next.Submit(ctx, cardID, success)
		if err != nil {
			return err
		}
		if onDone != nil {
			onDone(outcome)
		}
		return nil
	})
	return q.dispatcher.Submit(t)
}
