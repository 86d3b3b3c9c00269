package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/logx"
)

// MemoryScheduler держит таймеры в памяти процесса. При перезапуске
// запланированные напоминания теряются.
type MemoryScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler Handler
	stopped bool
}

func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		timers: make(map[string]*time.Timer),
	}
}

func (s *MemoryScheduler) WithHandler(h Handler) *MemoryScheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
	return s
}

// Schedule ставит напоминание, заменяя прежнее для той же пары.
func (s *MemoryScheduler) Schedule(ctx context.Context, intent entity.PurchaseIntent, delay time.Duration) error {
	key := Key(intent.BuyerID, intent.OfferID)
	fireCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errors.New("reminder scheduler is stopped")
	}

	if old, ok := s.timers[key]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		handler := s.handler
		s.mu.Unlock()

		if handler == nil {
			return
		}
		if err := handler(fireCtx, intent); err != nil {
			logger(fireCtx).Error("reminder failed",
				logx.FieldBuyerID, intent.BuyerID,
				logx.FieldOfferID, intent.OfferID,
				logx.Error(err),
			)
		}
	})
	s.timers[key] = timer

	return nil
}

// Cancel снимает напоминание. Возвращает false, если его не было.
func (s *MemoryScheduler) Cancel(_ context.Context, buyerID int64, offerID string) bool {
	key := Key(buyerID, offerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	return timer.Stop()
}

func (s *MemoryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop отменяет все таймеры и запрещает новые.
func (s *MemoryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.stopped = true
}
