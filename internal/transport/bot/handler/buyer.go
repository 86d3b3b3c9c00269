package handler

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/internal/transport/bot/view"
	"tg_listing/pkg/logx"
)

// OnStart обрабатывает /start и deep link: buy_<id>, paid_<attempt>, help.
func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}
	c := actor(ctx, msg.From.ID)

	action, arg := view.ParseStart(msg.Text)
	switch action {
	case view.StartBuy:
		return h.startPurchase(c, msg.Chat.ID, msg.From.ID, arg)
	case view.StartPaid:
		return h.paymentStatus(c, msg.Chat.ID, msg.From.ID, arg)
	case view.StartHelp:
		return h.reply(c, msg.Chat.ID, view.HelpMessage, nil)
	default:
		return h.reply(c, msg.Chat.ID, view.WelcomeMessage, nil)
	}
}

func (h *Handler) OnHelp(ctx *th.Context, msg telego.Message) error {
	return h.reply(ctx, msg.Chat.ID, view.HelpMessage, nil)
}

// OnReceipt пересылает операторам фото или документ с квитанцией.
func (h *Handler) OnReceipt(ctx *th.Context, msg telego.Message) error {
	if msg.From == nil {
		return nil
	}
	c := actor(ctx, msg.From.ID)

	receipt := entity.Receipt{
		BuyerID:   msg.From.ID,
		FirstName: msg.From.FirstName,
		Username:  msg.From.Username,
		Caption:   msg.Caption,
	}
	switch {
	case len(msg.Photo) > 0:
		// последний размер: самый крупный
		receipt.FileID = msg.Photo[len(msg.Photo)-1].FileID
		receipt.IsPhoto = true
	case msg.Document != nil:
		receipt.FileID = msg.Document.FileID
	default:
		return h.reply(c, msg.Chat.ID, view.ReceiptPrompt, nil)
	}

	if err := h.purchases.ForwardReceipt(c, receipt); err != nil {
		logger(c).Error("forward receipt", logx.Error(err))
	}
	return nil
}

func (h *Handler) startPurchase(ctx context.Context, chatID, buyerID int64, offerID string) error {
	checkout, err := h.purchases.Open(ctx, buyerID, offerID)
	if err != nil {
		if view.IsNotFound(err) {
			return h.reply(ctx, chatID, view.NotFoundMessage, nil)
		}
		logger(ctx).Error("open purchase", logx.FieldOfferID, offerID, logx.Error(err))
		return h.reply(ctx, chatID, view.RequestFailed, nil)
	}

	if err := h.reply(ctx, chatID, checkout.Offer.RenderedText, nil); err != nil {
		return err
	}
	if len(checkout.Rails) == 0 {
		return h.reply(ctx, chatID, view.NoRailsMessage, nil)
	}
	return h.reply(ctx, chatID, view.ChooseRailMessage, view.RailKeyboard(checkout.Offer.ID, checkout.Rails))
}

func (h *Handler) paymentStatus(ctx context.Context, chatID, buyerID int64, attemptID string) error {
	intent, err := h.purchases.Status(ctx, buyerID, attemptID)
	if err != nil {
		return h.reply(ctx, chatID, view.PaymentNotFound, nil)
	}
	return h.reply(ctx, chatID, purchase.StatusMessage(intent), nil)
}
