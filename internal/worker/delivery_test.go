package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/worker"
)

var errTransport = errors.New("transport unavailable")

// flakyPublisher fails each task id the configured number of times.
type flakyPublisher struct {
	mu        sync.Mutex
	failures  map[string]int
	calls     map[string]int
	delivered []entity.DeliveryTask
}

func newFlakyPublisher(failures map[string]int) *flakyPublisher {
	return &flakyPublisher{
		failures: failures,
		calls:    make(map[string]int),
	}
}

func (p *flakyPublisher) Publish(_ context.Context, task entity.DeliveryTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[task.ID]++
	if p.failures[task.ID] < 0 || p.calls[task.ID] <= p.failures[task.ID] {
		return errTransport
	}
	p.delivered = append(p.delivered, task)
	return nil
}

func (p *flakyPublisher) deliveredIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.delivered))
	for _, task := range p.delivered {
		ids = append(ids, task.ID)
	}
	return ids
}

func (p *flakyPublisher) callCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

type recordingSink struct {
	mu      sync.Mutex
	letters []entity.DeadLetter
}

func (s *recordingSink) HandleDeadLetter(_ context.Context, letter entity.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append(s.letters, letter)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.letters)
}

func startWorker(t *testing.T, w *worker.DeliveryWorker) {
	t.Helper()

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
}

func TestDeliveryWorkerPreservesOrder(t *testing.T) {
	rq := require.New(t)

	q := worker.NewDeliveryQueue()
	pub := newFlakyPublisher(nil)
	w := worker.NewDeliveryWorker(q, pub).WithPacing(0)

	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(entity.DeliveryTask{ID: id})
	}
	startWorker(t, w)

	rq.Eventually(func() bool { return len(pub.deliveredIDs()) == 3 }, time.Second, 5*time.Millisecond)
	rq.Equal([]string{"a", "b", "c"}, pub.deliveredIDs())
	rq.EqualValues(3, w.Stats().Delivered)
}

func TestDeliveryWorkerRetriesWithoutDropping(t *testing.T) {
	rq := require.New(t)

	const failures = 4

	q := worker.NewDeliveryQueue()
	pub := newFlakyPublisher(map[string]int{"flaky": failures})
	w := worker.NewDeliveryWorker(q, pub).
		WithPacing(0).
		WithBackoff(time.Millisecond).
		WithMaxAttempts(0)

	q.Enqueue(entity.DeliveryTask{ID: "flaky"})
	startWorker(t, w)

	rq.Eventually(func() bool { return len(pub.deliveredIDs()) == 1 }, time.Second, 5*time.Millisecond)

	// Ещё немного ждём, чтобы убедиться в отсутствии повторной отправки.
	time.Sleep(20 * time.Millisecond)

	rq.Equal(failures+1, pub.callCount("flaky"))
	rq.Equal([]string{"flaky"}, pub.deliveredIDs())
	rq.Equal(failures, pub.delivered[0].Attempts)
	rq.Equal(errTransport.Error(), pub.delivered[0].LastError)

	stats := w.Stats()
	rq.EqualValues(1, stats.Delivered)
	rq.EqualValues(failures, stats.Retried)
	rq.Zero(stats.DeadLettered)
	rq.Zero(stats.Pending)
}

func TestDeliveryWorkerRequeuesAtTail(t *testing.T) {
	rq := require.New(t)

	q := worker.NewDeliveryQueue()
	pub := newFlakyPublisher(map[string]int{"first": 1})
	w := worker.NewDeliveryWorker(q, pub).
		WithPacing(0).
		WithBackoff(time.Millisecond)

	q.Enqueue(entity.DeliveryTask{ID: "first"})
	q.Enqueue(entity.DeliveryTask{ID: "second"})
	startWorker(t, w)

	rq.Eventually(func() bool { return len(pub.deliveredIDs()) == 2 }, time.Second, 5*time.Millisecond)
	rq.Equal([]string{"second", "first"}, pub.deliveredIDs())
}

func TestDeliveryWorkerDeadLetter(t *testing.T) {
	rq := require.New(t)

	q := worker.NewDeliveryQueue()
	pub := newFlakyPublisher(map[string]int{"poison": -1})
	sink := &recordingSink{}
	w := worker.NewDeliveryWorker(q, pub).
		WithPacing(0).
		WithBackoff(time.Millisecond).
		WithMaxAttempts(3).
		WithDeadLetterSinks(sink)

	q.Enqueue(entity.DeliveryTask{ID: "poison"})
	q.Enqueue(entity.DeliveryTask{ID: "healthy"})
	startWorker(t, w)

	rq.Eventually(func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	rq.Eventually(func() bool { return len(pub.deliveredIDs()) == 1 }, time.Second, 5*time.Millisecond)

	rq.Equal(3, pub.callCount("poison"))
	rq.Equal("poison", sink.letters[0].Task.ID)
	rq.Equal(3, sink.letters[0].Task.Attempts)

	letters := w.DeadLetters()
	rq.Len(letters, 1)
	rq.EqualValues(1, w.Stats().DeadLettered)
	rq.EqualValues(2, w.Stats().Retried)
}

func TestDeliveryWorkerPacing(t *testing.T) {
	rq := require.New(t)

	const pacing = 40 * time.Millisecond

	q := worker.NewDeliveryQueue()
	pub := newFlakyPublisher(nil)
	w := worker.NewDeliveryWorker(q, pub).WithPacing(pacing)

	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(entity.DeliveryTask{ID: id})
	}

	started := time.Now()
	startWorker(t, w)

	rq.Eventually(func() bool { return len(pub.deliveredIDs()) == 3 }, time.Second, time.Millisecond)
	rq.GreaterOrEqual(time.Since(started), 2*pacing)
}

func TestDeliveryWorkerLifecycle(t *testing.T) {
	rq := require.New(t)

	w := worker.NewDeliveryWorker(worker.NewDeliveryQueue(), newFlakyPublisher(nil))

	rq.False(w.IsRunning())
	rq.NoError(w.Start(context.Background()))
	rq.True(w.IsRunning())
	rq.Error(w.Start(context.Background()))

	w.Stop()
	rq.False(w.IsRunning())

	// Повторная остановка безопасна.
	w.Stop()
}

func TestDeliveryWorkerRunStopsOnCancel(t *testing.T) {
	rq := require.New(t)

	q := worker.NewDeliveryQueue()
	w := worker.NewDeliveryWorker(q, newFlakyPublisher(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		rq.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		rq.Fail("worker did not stop")
	}
}
