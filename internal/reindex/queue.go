// Package reindex keeps the search index converged with the store: it
// consumes change notifications, fans each one out to the affected work
// documents, and rebuilds them through the search service.
package reindex

import (
	"sync"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
)

// task is one change notification plus its delivery attempt count.
type task struct {
	change   domain.Change
	attempts int
}

// queue is an unbounded FIFO of reindex tasks. Unbounded because the
// producers are store mutations that must never block or drop a
// notification; the consumer side is the bottleneck by design.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []task
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a task. Pushing to a closed queue is rejected so late
// notifications during shutdown don't panic; callers must release any
// accounting they hold for a rejected task.
func (q *queue) push(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, t)
	q.cond.Signal()
	return true
}

// pop blocks until a task is available or the queue is closed. The second
// return is false once the queue is closed and drained.
func (q *queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return task{}, false
	}

	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// close wakes all waiting consumers. Remaining items are still delivered.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
