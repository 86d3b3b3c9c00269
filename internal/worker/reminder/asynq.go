package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/logx"
)

const (
	TaskType = "purchase:reminder"
	Queue    = "reminders"

	maxRetry = 3
)

// TaskClient: часть asynq.Client, нужная планировщику.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector: часть asynq.Inspector, нужная для отмены.
type TaskInspector interface {
	DeleteTask(queue, id string) error
}

// AsynqScheduler хранит напоминания в Redis и переживает перезапуск.
type AsynqScheduler struct {
	client    TaskClient
	inspector TaskInspector
	handler   Handler
}

func NewAsynqScheduler(client TaskClient, inspector TaskInspector) *AsynqScheduler {
	return &AsynqScheduler{
		client:    client,
		inspector: inspector,
	}
}

func (s *AsynqScheduler) WithHandler(h Handler) *AsynqScheduler {
	s.handler = h
	return s
}

func (s *AsynqScheduler) Schedule(ctx context.Context, intent entity.PurchaseIntent, delay time.Duration) error {
	payload, err := jsoniter.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}

	key := Key(intent.BuyerID, intent.OfferID)
	task := asynq.NewTask(TaskType, payload)
	opts := []asynq.Option{
		asynq.TaskID(key),
		asynq.ProcessIn(delay),
		asynq.Queue(Queue),
		asynq.MaxRetry(maxRetry),
	}

	_, err = s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		if delErr := s.inspector.DeleteTask(Queue, key); delErr != nil && !isMissing(delErr) {
			return fmt.Errorf("replace reminder %s: %w", key, delErr)
		}
		_, err = s.client.EnqueueContext(ctx, task, opts...)
	}
	if err != nil {
		return fmt.Errorf("enqueue reminder %s: %w", key, err)
	}

	return nil
}

func (s *AsynqScheduler) Cancel(ctx context.Context, buyerID int64, offerID string) bool {
	key := Key(buyerID, offerID)

	err := s.inspector.DeleteTask(Queue, key)
	if err == nil {
		return true
	}
	if !isMissing(err) {
		logger(ctx).Error("cancel reminder", logx.FieldBuyerID, buyerID, logx.FieldOfferID, offerID, logx.Error(err))
	}
	return false
}

// ProcessTask обрабатывает задачу напоминания из asynq.
func (s *AsynqScheduler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var intent entity.PurchaseIntent
	if err := jsoniter.Unmarshal(task.Payload(), &intent); err != nil {
		return fmt.Errorf("unmarshal reminder: %w: %w", err, asynq.SkipRetry)
	}

	if s.handler == nil {
		return nil
	}

	return s.handler(ctx, intent)
}

func isMissing(err error) bool {
	return errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound)
}
