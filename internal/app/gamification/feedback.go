package gamification

import (
	"context"
	"sync"

	"github.com/fitquest/fitquest/internal/domain"
	"github.com/fitquest/fitquest/internal/infra/metrics"
)

// FeedbackQueue is the FIFO between the engine (producer) and the UI
// (single consumer). The consumer peeks the head, shows it, and dismisses
// it only after the user acknowledges it, so exactly one event is on screen
// at a time. Push never blocks and never drops.
type FeedbackQueue struct {
	mu     sync.Mutex
	events []domain.Feedback
	ready  chan struct{} // closed and replaced when an event is pushed
}

// NewFeedbackQueue creates an empty queue.
func NewFeedbackQueue() *FeedbackQueue {
	return &FeedbackQueue{ready: make(chan struct{})}
}

// Push appends events in order.
func (q *FeedbackQueue) Push(events ...domain.Feedback) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, events...)
	close(q.ready)
	q.ready = make(chan struct{})
	q.mu.Unlock()
	metrics.FeedbackPending.Add(float64(len(events)))
}

// Peek returns the head without removing it.
func (q *FeedbackQueue) Peek() (domain.Feedback, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil, false
	}
	return q.events[0], true
}

// Dismiss removes the head. It reports false when the queue was empty.
func (q *FeedbackQueue) Dismiss() bool {
	q.mu.Lock()
	ok := q.popLocked()
	q.mu.Unlock()
	if ok {
		metrics.FeedbackPending.Dec()
	}
	return ok
}

// DismissID removes the head only if it is the event with the given id,
// so a stale client cannot skip an event it never displayed.
func (q *FeedbackQueue) DismissID(id string) bool {
	q.mu.Lock()
	ok := len(q.events) > 0 && q.events[0].Meta().ID == id && q.popLocked()
	q.mu.Unlock()
	if ok {
		metrics.FeedbackPending.Dec()
	}
	return ok
}

func (q *FeedbackQueue) popLocked() bool {
	if len(q.events) == 0 {
		return false
	}
	q.events[0] = nil
	q.events = q.events[1:]
	if len(q.events) == 0 {
		q.events = nil // release the backing array
	}
	return true
}

// Len returns the number of pending events.
func (q *FeedbackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Pending returns a snapshot of the queued events, head first.
func (q *FeedbackQueue) Pending() []domain.Feedback {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Feedback, len(q.events))
	copy(out, q.events)
	return out
}

// Wait blocks until an event is available and returns the head without
// removing it.
func (q *FeedbackQueue) Wait(ctx context.Context) (domain.Feedback, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.mu.Unlock()
			return ev, nil
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
