package worker

import (
	"context"
	"sync"

	"tg_listing/internal/domain/entity"
)

// DeliveryQueue: неограниченная FIFO-очередь публикаций.
// Enqueue никогда не блокирует вызывающего.
type DeliveryQueue struct {
	mu     sync.Mutex
	tasks  []entity.DeliveryTask
	signal chan struct{}
}

func NewDeliveryQueue() *DeliveryQueue {
	return &DeliveryQueue{
		signal: make(chan struct{}, 1),
	}
}

func (q *DeliveryQueue) Enqueue(task entity.DeliveryTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue ждёт первую задачу или отмену контекста.
func (q *DeliveryQueue) Dequeue(ctx context.Context) (entity.DeliveryTask, error) {
	for {
		if task, ok := q.pop(); ok {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return entity.DeliveryTask{}, ctx.Err()
		case <-q.signal:
		}
	}
}

func (q *DeliveryQueue) pop() (entity.DeliveryTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return entity.DeliveryTask{}, false
	}

	task := q.tasks[0]
	q.tasks[0] = entity.DeliveryTask{}
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain забирает все оставшиеся задачи.
func (q *DeliveryQueue) Drain() []entity.DeliveryTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks := q.tasks
	q.tasks = nil
	return tasks
}
