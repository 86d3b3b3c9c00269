package persistence

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"tg_listing/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// purchaseSchema: строка таблицы purchases.
type purchaseSchema struct {
	AttemptID   string    `db:"attempt_id"`
	BuyerID     int64     `db:"buyer_id"`
	OfferID     string    `db:"offer_id"`
	Rail        string    `db:"rail"`
	Amount      int64     `db:"amount"`
	Currency    string    `db:"currency"`
	Source      string    `db:"source"`
	CreatedAt   time.Time `db:"created_at"`
	ConfirmedAt time.Time `db:"confirmed_at"`
}

func fromIntent(intent entity.PurchaseIntent, source entity.ProofSource) purchaseSchema {
	return purchaseSchema{
		AttemptID:   intent.AttemptID,
		BuyerID:     intent.BuyerID,
		OfferID:     intent.OfferID,
		Rail:        intent.Rail.String(),
		Amount:      intent.Amount,
		Currency:    intent.Currency,
		Source:      string(source),
		CreatedAt:   intent.CreatedAt,
		ConfirmedAt: intent.ConfirmedAt,
	}
}

func (s purchaseSchema) toDomain() entity.PurchaseIntent {
	return entity.PurchaseIntent{
		BuyerID:     s.BuyerID,
		OfferID:     s.OfferID,
		CreatedAt:   s.CreatedAt,
		State:       entity.PurchaseStateConfirmed,
		Rail:        entity.Rail(s.Rail),
		AttemptID:   s.AttemptID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		UpdatedAt:   s.ConfirmedAt,
		ConfirmedAt: s.ConfirmedAt,
	}
}

// deadLetterSchema: строка таблицы dead_letters. Кнопки хранятся как JSON.
type deadLetterSchema struct {
	TaskID    string    `db:"task_id"`
	ChatID    string    `db:"chat_id"`
	Text      string    `db:"text"`
	Buttons   []byte    `db:"buttons"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	FailedAt  time.Time `db:"failed_at"`
}

func fromDeadLetter(letter entity.DeadLetter) (deadLetterSchema, error) {
	buttons, err := json.Marshal(letter.Task.Buttons)
	if err != nil {
		return deadLetterSchema{}, err
	}

	return deadLetterSchema{
		TaskID:    letter.Task.ID,
		ChatID:    letter.Task.ChatID,
		Text:      letter.Task.Text,
		Buttons:   buttons,
		Attempts:  letter.Task.Attempts,
		LastError: letter.Task.LastError,
		FailedAt:  letter.FailedAt,
	}, nil
}
