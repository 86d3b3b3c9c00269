package entity

import (
	"slices"
	"time"
)

// OfferKind задаёт форму объявления (аккаунт с играми или пак).
type OfferKind string

const (
	OfferKindAccount OfferKind = "account"
	OfferKindPack    OfferKind = "pack"
)

func (k OfferKind) String() string {
	return string(k)
}

// Offer: готовое к публикации объявление. После создания не меняется:
// чтобы обновить объявление, публикуется новое с новым ID.
type Offer struct {
	ID   string    `json:"id"`
	Kind OfferKind `json:"kind"`

	// Nickname заполнен для аккаунтов, Code: для паков.
	Nickname string `json:"nickname,omitempty"`
	Code     string `json:"code,omitempty"`

	Items []string `json:"items"`

	PriceUSD   int64 `json:"price_usd"`
	PriceLocal int64 `json:"price_local"`
	PriceIntl  int64 `json:"price_intl"`

	RenderedText     string    `json:"rendered_text"`
	AvailabilityNote string    `json:"availability_note"`
	CreatedAt        time.Time `json:"created_at"`
}

// Title возвращает поле, идентифицирующее объявление внутри своего вида.
func (o Offer) Title() string {
	if o.Kind == OfferKindAccount {
		return o.Nickname
	}
	return o.Code
}

// Clone отдаёт копию, не разделяющую срез Items с оригиналом.
func (o Offer) Clone() Offer {
	o.Items = slices.Clone(o.Items)
	return o
}
