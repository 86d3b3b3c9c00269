package handler

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/internal/transport/bot/view"
	"tg_listing/pkg/logx"
)

// OnPayCallback: нажатие кнопки pay:<rail>:<offer>. Неверные данные
// молча игнорируются, часики на кнопке снимаются всегда.
func (h *Handler) OnPayCallback(ctx *th.Context, query telego.CallbackQuery) error {
	answer(ctx, query)

	r, offerID, ok := view.ParsePayCallback(query.Data)
	if !ok {
		logger(ctx).Warn("malformed pay callback", "data", query.Data)
		return nil
	}

	c := actor(ctx, query.From.ID)
	chatID := query.From.ID

	redirect, err := h.purchases.SelectRail(c, query.From.ID, offerID, r)
	if err != nil {
		if view.IsNotFound(err) {
			return h.reply(c, chatID, view.NotFoundMessage, nil)
		}
		logger(c).Error("select rail", logx.FieldRail, r, logx.FieldOfferID, offerID, logx.Error(err))
		return h.reply(c, chatID, view.RequestFailed, nil)
	}

	return h.sendRedirect(c, chatID, redirect)
}

func (h *Handler) OnHelpCallback(ctx *th.Context, query telego.CallbackQuery) error {
	answer(ctx, query)
	return h.reply(ctx, query.From.ID, view.HelpMessage, nil)
}

// OnUnknownCallback снимает часики с кнопок, которые бот не знает.
func (h *Handler) OnUnknownCallback(ctx *th.Context, query telego.CallbackQuery) error {
	answer(ctx, query)
	logger(ctx).Debug("unknown callback", "data", query.Data)
	return nil
}

func (h *Handler) sendRedirect(ctx context.Context, chatID int64, redirect purchase.Redirect) error {
	intent := redirect.Intent

	switch {
	case intent.State == entity.PurchaseStateConfirmed:
		return h.reply(ctx, chatID, purchase.StatusMessage(intent), nil)
	case redirect.Instructions != "":
		return h.reply(ctx, chatID, redirect.Instructions, nil)
	case redirect.Fallback:
		return h.reply(ctx, chatID, view.Fallback(intent.AttemptID), view.PayKeyboard(redirect.URL))
	default:
		return h.reply(ctx, chatID, view.PayLink(intent.Amount, intent.Currency), view.PayKeyboard(redirect.URL))
	}
}

func answer(ctx *th.Context, query telego.CallbackQuery) {
	if err := ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID)); err != nil {
		logger(ctx).Warn("answer callback", logx.Error(err))
	}
}
