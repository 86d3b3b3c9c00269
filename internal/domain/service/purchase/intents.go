package purchase

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"tg_listing/internal/domain/entity"
)

const (
	DefaultIntentTTL = 24 * time.Hour

	cleanupInterval = 10 * time.Minute
)

type attempt struct {
	key      string
	rail     entity.Rail
	amount   int64
	currency string
}

// IntentStore хранит намерения покупателей в памяти с TTL.
// Все переходы состояний выполняются под одним мьютексом.
type IntentStore struct {
	mu       sync.Mutex
	intents  *cache.Cache
	attempts *cache.Cache
	// bank: последняя попытка банковского перевода по покупателю.
	bank *cache.Cache
}

func NewIntentStore(ttl time.Duration) *IntentStore {
	return &IntentStore{
		intents:  cache.New(ttl, cleanupInterval),
		attempts: cache.New(ttl, cleanupInterval),
		bank:     cache.New(ttl, cleanupInterval),
	}
}

func (s *IntentStore) Get(buyerID int64, offerID string) (entity.PurchaseIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(entity.IntentKey(buyerID, offerID))
}

func (s *IntentStore) get(key string) (entity.PurchaseIntent, bool) {
	v, ok := s.intents.Get(key)
	if !ok {
		return entity.PurchaseIntent{}, false
	}
	intent, ok := v.(entity.PurchaseIntent)
	return intent, ok
}

// Open создаёт намерение или возвращает подтверждённое без изменений.
func (s *IntentStore) Open(buyerID int64, offerID string, now time.Time) entity.PurchaseIntent {
	key := entity.IntentKey(buyerID, offerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.get(key)
	if ok && intent.State == entity.PurchaseStateConfirmed {
		return intent
	}
	if !ok {
		intent = entity.PurchaseIntent{
			BuyerID:   buyerID,
			OfferID:   offerID,
			CreatedAt: now,
		}
	}
	intent.State = entity.PurchaseStateMethodChosen
	intent.UpdatedAt = now

	s.intents.SetDefault(key, intent)
	return intent
}

// IssueAttempt фиксирует новую попытку оплаты. Прежние попытки того же
// намерения остаются действительными: покупатель мог оплатить любую из них.
func (s *IntentStore) IssueAttempt(buyerID int64, offerID, attemptID string, r entity.Rail, amount int64, currency string, now time.Time) entity.PurchaseIntent {
	key := entity.IntentKey(buyerID, offerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.get(key)
	if !ok {
		intent = entity.PurchaseIntent{
			BuyerID:   buyerID,
			OfferID:   offerID,
			CreatedAt: now,
		}
	}
	if intent.State != entity.PurchaseStateConfirmed {
		intent.State = entity.PurchaseStateRedirectIssued
		intent.Rail = r
		intent.AttemptID = attemptID
		intent.Amount = amount
		intent.Currency = currency
	}
	intent.UpdatedAt = now

	s.intents.SetDefault(key, intent)
	s.attempts.SetDefault(attemptID, attempt{key: key, rail: r, amount: amount, currency: currency})
	if r == entity.RailBank {
		s.bank.SetDefault(strconv.FormatInt(buyerID, 10), attemptID)
	}
	return intent
}

// ByAttempt находит намерение по ID попытки.
func (s *IntentStore) ByAttempt(attemptID string) (entity.PurchaseIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempt(attemptID)
	if !ok {
		return entity.PurchaseIntent{}, false
	}
	return s.get(a.key)
}

func (s *IntentStore) attempt(attemptID string) (attempt, bool) {
	v, ok := s.attempts.Get(attemptID)
	if !ok {
		return attempt{}, false
	}
	a, ok := v.(attempt)
	return a, ok
}

// Confirm переводит намерение в confirmed. duplicate=true, если оно уже было подтверждено.
func (s *IntentStore) Confirm(attemptID string, now time.Time) (intent entity.PurchaseIntent, duplicate, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempt(attemptID)
	if !ok {
		return entity.PurchaseIntent{}, false, false
	}
	intent, ok = s.get(a.key)
	if !ok {
		return entity.PurchaseIntent{}, false, false
	}
	if intent.State == entity.PurchaseStateConfirmed {
		return intent, true, true
	}

	intent.State = entity.PurchaseStateConfirmed
	intent.AttemptID = attemptID
	intent.Rail = a.rail
	intent.Amount = a.amount
	intent.Currency = a.currency
	intent.UpdatedAt = now
	intent.ConfirmedAt = now

	s.intents.SetDefault(a.key, intent)
	return intent, false, true
}

// LatestBankAttempt возвращает последнюю неподтверждённую попытку перевода покупателя.
func (s *IntentStore) LatestBankAttempt(buyerID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.bank.Get(strconv.FormatInt(buyerID, 10))
	if !ok {
		return "", false
	}
	attemptID, _ := v.(string)

	a, ok := s.attempt(attemptID)
	if !ok {
		return "", false
	}
	intent, ok := s.get(a.key)
	if !ok || intent.State == entity.PurchaseStateConfirmed {
		return "", false
	}
	return attemptID, true
}

func (s *IntentStore) Len() int {
	return s.intents.ItemCount()
}
