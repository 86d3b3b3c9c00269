package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/transport/bot/view"
	"tg_listing/pkg/logx"
)

// OnListing: любой текст оператора без команды считается объявлением.
func (h *Handler) OnListing(ctx *th.Context, msg telego.Message) error {
	c := actor(ctx, msg.From.ID)

	offer, err := h.listings.Publish(c, msg.Text)
	if err != nil {
		return h.reply(c, msg.Chat.ID, view.Rejection(err), nil)
	}

	logger(c).Info("listing queued", logx.FieldOfferID, offer.ID)
	return h.reply(c, msg.Chat.ID, view.QueuedMessage, nil)
}

func (h *Handler) OnQueue(ctx *th.Context, msg telego.Message) error {
	return h.reply(ctx, msg.Chat.ID, view.QueueStats(h.delivery.Stats(), h.delivery.DeadLetters()), nil)
}

// OnConfirm обрабатывает /confirm <attempt>, когда оператор проверил квитанцию перевода.
func (h *Handler) OnConfirm(ctx *th.Context, msg telego.Message) error {
	c := actor(ctx, msg.From.ID)

	attemptID, ok := view.CommandArg(msg.Text)
	if !ok {
		return h.reply(c, msg.Chat.ID, view.ConfirmUsage, nil)
	}

	result, err := h.purchases.Confirm(c, entity.Confirmation{
		AttemptID: attemptID,
		Source:    entity.ProofSourceOperator,
	})
	if err != nil {
		if view.IsNotFound(err) {
			return h.reply(c, msg.Chat.ID, view.UnknownAttempt(attemptID), nil)
		}
		logger(c).Error("operator confirm", logx.FieldAttemptID, attemptID, logx.Error(err))
		return h.reply(c, msg.Chat.ID, view.RequestFailed, nil)
	}

	return h.reply(c, msg.Chat.ID, view.Confirmed(attemptID, result.Duplicate), nil)
}
