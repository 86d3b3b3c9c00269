package entity

import (
	"strconv"
	"time"
)

// Rail: платёжный канал.
type Rail string

const (
	// RailLocal: внутренний шлюз, цена в местной валюте.
	RailLocal Rail = "local"
	// RailIntl: международный шлюз, цена в USD.
	RailIntl Rail = "intl"
	// RailBank: ручной банковский перевод, цена в местной валюте.
	RailBank Rail = "bank"
)

func (r Rail) String() string {
	return string(r)
}

func ParseRail(s string) (Rail, bool) {
	switch r := Rail(s); r {
	case RailLocal, RailIntl, RailBank:
		return r, true
	default:
		return "", false
	}
}

// PurchaseState: состояние намерения. Объявление без намерения считается
// анонсированным, отдельного значения для этого нет.
type PurchaseState string

const (
	PurchaseStateMethodChosen   PurchaseState = "method_chosen"
	PurchaseStateRedirectIssued PurchaseState = "redirect_issued"
	PurchaseStateConfirmed      PurchaseState = "confirmed"
	PurchaseStateNotFound       PurchaseState = "not_found"
)

// PurchaseIntent: временная запись покупателя по конкретному объявлению.
// Живёт только в памяти процесса.
type PurchaseIntent struct {
	BuyerID     int64         `json:"buyer_id"`
	OfferID     string        `json:"offer_id"`
	CreatedAt   time.Time     `json:"created_at"`
	State       PurchaseState `json:"state"`
	Rail        Rail          `json:"rail,omitempty"`
	AttemptID   string        `json:"attempt_id,omitempty"`
	Amount      int64         `json:"amount,omitempty"`
	Currency    string        `json:"currency,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
	ConfirmedAt time.Time     `json:"confirmed_at,omitzero"`
}

// PaymentRequest: запрос на создание платежа в шлюзе.
type PaymentRequest struct {
	AttemptID string
	OfferID   string
	BuyerID   int64
	Title     string
	Amount    int64
	Currency  string
	ReturnURL string
	CancelURL string
}

// ProofSource: откуда пришло подтверждение оплаты.
type ProofSource string

const (
	ProofSourceLocalWebhook ProofSource = "local_webhook"
	ProofSourceIntlWebhook  ProofSource = "intl_webhook"
	// ProofSourceOperator: оператор проверил квитанцию перевода вручную.
	ProofSourceOperator     ProofSource = "operator"
)

type Confirmation struct {
	AttemptID string
	Source    ProofSource
}

// Receipt: фото или документ с квитанцией перевода от покупателя.
type Receipt struct {
	BuyerID   int64
	FirstName string
	Username  string
	FileID    string
	IsPhoto   bool
	Caption   string
}

// IntentKey возвращает ключ намерения, одно на пару (покупатель, объявление).
func IntentKey(buyerID int64, offerID string) string {
	return strconv.FormatInt(buyerID, 10) + ":" + offerID
}
