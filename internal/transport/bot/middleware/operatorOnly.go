package middleware

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	"github.com/samber/lo"
)

// OperatorOnly пропускает дальше только обновления от операторов.
// Остальные молча отбрасываются, чтобы не раскрывать список операторов.
func OperatorOnly(operators ...int64) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		var from *telego.User

		switch {
		case update.Message != nil:
			from = update.Message.From
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
		}

		if from == nil || !lo.Contains(operators, from.ID) {
			return nil
		}

		return ctx.Next(update)
	}
}
