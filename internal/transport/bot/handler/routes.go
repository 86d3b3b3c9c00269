package handler

import (
	"context"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_listing/internal/transport/bot/middleware"
	"tg_listing/internal/transport/bot/view"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, operators []int64) {
	// Покупатели
	bh.HandleMessage(h.OnStart, th.CommandEqual("start"))
	bh.HandleMessage(h.OnHelp, th.Or(th.CommandEqual("help"), th.CommandEqual("ayuda")))
	bh.HandleMessage(h.OnReceipt, hasAttachment)

	bh.HandleCallbackQuery(h.OnPayCallback, th.CallbackDataPrefix(view.CallbackPayPrefix))
	bh.HandleCallbackQuery(h.OnHelpCallback, th.CallbackDataEqual(view.CallbackHelp))
	bh.HandleCallbackQuery(h.OnUnknownCallback, th.AnyCallbackQuery())

	// Операторы: всё остальное, посторонние отбрасываются миддлварью
	operatorGroup := bh.Group(th.AnyMessage())
	operatorGroup.Use(middleware.OperatorOnly(operators...))

	operatorGroup.HandleMessage(h.OnQueue, th.CommandEqual("queue"))
	operatorGroup.HandleMessage(h.OnConfirm, th.CommandEqual("confirm"))
	operatorGroup.HandleMessage(h.OnListing, th.AnyMessageWithText(), th.Not(th.AnyCommand()))
}

func hasAttachment(_ context.Context, update telego.Update) bool {
	return update.Message != nil && (len(update.Message.Photo) > 0 || update.Message.Document != nil)
}
