package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/logx"
)

const (
	DefaultPacing      = 1500 * time.Millisecond
	DefaultBackoff     = 5 * time.Second
	DefaultMaxAttempts = 10

	deadLetterKeep = 100
)

var deliveryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "delivery_tasks_total",
	Help: "Channel delivery attempts by outcome.",
}, []string{"outcome"})

// ChannelPublisher отправляет задачу в канал.
type ChannelPublisher interface {
	Publish(ctx context.Context, task entity.DeliveryTask) error
}

// DeadLetterSink получает задачи, исчерпавшие попытки.
type DeadLetterSink interface {
	HandleDeadLetter(ctx context.Context, letter entity.DeadLetter) error
}

type DeliveryWorker struct {
	queue     *DeliveryQueue
	publisher ChannelPublisher
	sinks     []DeadLetterSink

	limiter     *rate.Limiter
	backoff     time.Duration
	maxAttempts int

	delivered    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64

	lettersMu   sync.Mutex
	deadLetters []entity.DeadLetter

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewDeliveryWorker(queue *DeliveryQueue, publisher ChannelPublisher) *DeliveryWorker {
	return &DeliveryWorker{
		queue:       queue,
		publisher:   publisher,
		limiter:     rate.NewLimiter(rate.Every(DefaultPacing), 1),
		backoff:     DefaultBackoff,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithPacing задаёт минимальный интервал между отправками. 0 отключает паузу.
func (w *DeliveryWorker) WithPacing(pacing time.Duration) *DeliveryWorker {
	if pacing <= 0 {
		w.limiter = rate.NewLimiter(rate.Inf, 1)
		return w
	}
	w.limiter = rate.NewLimiter(rate.Every(pacing), 1)
	return w
}

func (w *DeliveryWorker) WithBackoff(backoff time.Duration) *DeliveryWorker {
	w.backoff = backoff
	return w
}

// WithMaxAttempts задаёт потолок попыток. 0 означает бесконечные повторы.
func (w *DeliveryWorker) WithMaxAttempts(n int) *DeliveryWorker {
	w.maxAttempts = n
	return w
}

func (w *DeliveryWorker) WithDeadLetterSinks(sinks ...DeadLetterSink) *DeliveryWorker {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *DeliveryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("delivery worker is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("delivery worker stopped", logx.Error(err))
		}
	}()

	return nil
}

func (w *DeliveryWorker) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *DeliveryWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

// Run обрабатывает очередь до отмены контекста. Оставшиеся задачи
// при остановке только логируются.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	logger(ctx).Info("delivery worker started")

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.dropPending(ctx)
			return err
		}

		if err := w.limiter.Wait(ctx); err != nil {
			w.dropPending(ctx, task)
			return ctx.Err()
		}

		if err := w.deliver(ctx, task); err != nil {
			return err
		}
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, task entity.DeliveryTask) error {
	err := w.publisher.Publish(ctx, task)
	if err == nil {
		w.delivered.Add(1)
		deliveryOutcomes.WithLabelValues("delivered").Inc()
		logger(ctx).Debug("task delivered", logx.FieldTaskID, task.ID, logx.FieldAttempt, task.Attempts+1)
		return nil
	}

	task.Attempts++
	task.LastError = err.Error()

	if w.maxAttempts > 0 && task.Attempts >= w.maxAttempts {
		w.deadLetter(ctx, task)
		return nil
	}

	w.retried.Add(1)
	deliveryOutcomes.WithLabelValues("retried").Inc()
	logger(ctx).Warn("delivery failed, retrying",
		logx.FieldTaskID, task.ID,
		logx.FieldAttempt, task.Attempts,
		logx.Error(err),
	)

	select {
	case <-ctx.Done():
		w.dropPending(ctx, task)
		return ctx.Err()
	case <-time.After(w.backoff):
	}

	w.queue.Enqueue(task)
	return nil
}

func (w *DeliveryWorker) deadLetter(ctx context.Context, task entity.DeliveryTask) {
	letter := entity.DeadLetter{Task: task, FailedAt: time.Now()}

	w.deadLettered.Add(1)
	deliveryOutcomes.WithLabelValues("dead_lettered").Inc()

	w.lettersMu.Lock()
	w.deadLetters = append(w.deadLetters, letter)
	if len(w.deadLetters) > deadLetterKeep {
		w.deadLetters = w.deadLetters[len(w.deadLetters)-deadLetterKeep:]
	}
	w.lettersMu.Unlock()

	logger(ctx).Error("delivery gave up",
		logx.FieldTaskID, task.ID,
		logx.FieldChatID, task.ChatID,
		logx.FieldAttempt, task.Attempts,
		"last_error", task.LastError,
	)

	for _, sink := range w.sinks {
		if err := sink.HandleDeadLetter(ctx, letter); err != nil {
			logger(ctx).Error("dead letter sink failed", logx.FieldTaskID, task.ID, logx.Error(err))
		}
	}
}

func (w *DeliveryWorker) dropPending(ctx context.Context, inFlight ...entity.DeliveryTask) {
	pending := append(inFlight, w.queue.Drain()...)
	if len(pending) == 0 {
		return
	}

	for _, task := range pending {
		logger(ctx).Warn("delivery dropped on shutdown", logx.FieldTaskID, task.ID, logx.FieldAttempt, task.Attempts)
	}
}

func (w *DeliveryWorker) Stats() entity.DeliveryStats {
	return entity.DeliveryStats{
		Pending:      w.queue.Len(),
		Delivered:    w.delivered.Load(),
		Retried:      w.retried.Load(),
		DeadLettered: w.deadLettered.Load(),
	}
}

// DeadLetters возвращает последние задачи, исчерпавшие попытки.
func (w *DeliveryWorker) DeadLetters() []entity.DeadLetter {
	w.lettersMu.Lock()
	defer w.lettersMu.Unlock()

	out := make([]entity.DeadLetter, len(w.deadLetters))
	copy(out, w.deadLetters)
	return out
}
