package reminder

import (
	"context"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault

// Handler вызывается, когда срабатывает напоминание.
type Handler func(ctx context.Context, intent entity.PurchaseIntent) error

// Key возвращает ключ напоминания, одно на пару (покупатель, объявление).
func Key(buyerID int64, offerID string) string {
	return entity.IntentKey(buyerID, offerID)
}
