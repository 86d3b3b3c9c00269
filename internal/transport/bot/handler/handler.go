package handler

import (
	"context"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/pkg/contextx"
	"tg_listing/pkg/logx"
)

type listingService interface {
	Publish(ctx context.Context, raw string) (entity.Offer, error)
}

type purchaseService interface {
	Open(ctx context.Context, buyerID int64, offerID string) (purchase.Checkout, error)
	SelectRail(ctx context.Context, buyerID int64, offerID string, r entity.Rail) (purchase.Redirect, error)
	Confirm(ctx context.Context, c entity.Confirmation) (purchase.ConfirmResult, error)
	Status(ctx context.Context, buyerID int64, attemptID string) (entity.PurchaseIntent, error)
	ForwardReceipt(ctx context.Context, receipt entity.Receipt) error
}

type messenger interface {
	SendText(ctx context.Context, chatID int64, text string, buttons [][]entity.Button) error
}

type deliveryStats interface {
	Stats() entity.DeliveryStats
	DeadLetters() []entity.DeadLetter
}

type Handler struct {
	listings  listingService
	purchases purchaseService
	messenger messenger
	delivery  deliveryStats
}

func New(
	listings listingService,
	purchases purchaseService,
	messenger messenger,
	delivery deliveryStats,
) *Handler {
	return &Handler{
		listings:  listings,
		purchases: purchases,
		messenger: messenger,
		delivery:  delivery,
	}
}

// actor добавляет в контекст автора обновления и логгер с его id.
func actor(ctx context.Context, userID int64) context.Context {
	ctx = contextx.WithActorID(ctx, contextx.ActorID(userID))
	return contextx.WithLogger(ctx, logger(ctx).With(logx.FieldUserID, userID))
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, buttons [][]entity.Button) error {
	if err := h.messenger.SendText(ctx, chatID, text, buttons); err != nil {
		logger(ctx).Error("reply failed", logx.FieldChatID, chatID, logx.Error(err))
		return err
	}
	return nil
}
