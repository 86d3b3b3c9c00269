package purchase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"tg_listing/internal/domain/entity"
)

type offerMap map[string]entity.Offer

func (m offerMap) Get(id string) (entity.Offer, bool) {
	o, ok := m[id]
	return o, ok
}

type sentText struct {
	chatID  int64
	text    string
	buttons [][]entity.Button
}

type sentReceipt struct {
	chatID  int64
	receipt entity.Receipt
	caption string
}

type fakeMessenger struct {
	mu       sync.Mutex
	texts    []sentText
	receipts []sentReceipt
	failFor  map[int64]bool
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string, buttons [][]entity.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return errors.New("chat blocked")
	}
	m.texts = append(m.texts, sentText{chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (m *fakeMessenger) SendReceipt(_ context.Context, chatID int64, receipt entity.Receipt, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return errors.New("chat blocked")
	}
	m.receipts = append(m.receipts, sentReceipt{chatID: chatID, receipt: receipt, caption: caption})
	return nil
}

func (m *fakeMessenger) textsTo(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, t := range m.texts {
		if t.chatID == chatID {
			out = append(out, t.text)
		}
	}
	return out
}

type fakeGateway struct {
	calls []entity.PaymentRequest
	url   string
	err   error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req entity.PaymentRequest) (string, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return "", g.err
	}
	return g.url + "?attempt=" + req.AttemptID, nil
}

type scheduled struct {
	intent entity.PurchaseIntent
	delay  time.Duration
}

type fakeScheduler struct {
	scheduled []scheduled
	cancelled []string
}

func (s *fakeScheduler) Schedule(_ context.Context, intent entity.PurchaseIntent, delay time.Duration) error {
	s.scheduled = append(s.scheduled, scheduled{intent: intent, delay: delay})
	return nil
}

func (s *fakeScheduler) Cancel(_ context.Context, buyerID int64, offerID string) bool {
	s.cancelled = append(s.cancelled, entity.IntentKey(buyerID, offerID))
	return true
}

type fakeJournal struct {
	records []entity.PurchaseIntent
	sources []entity.ProofSource
}

func (j *fakeJournal) RecordPurchase(_ context.Context, intent entity.PurchaseIntent, source entity.ProofSource) error {
	j.records = append(j.records, intent)
	j.sources = append(j.sources, source)
	return nil
}
