package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg_listing/internal/transport/bot/handler"
	"tg_listing/pkg/logx"
)

const longPollingTimeout = 60

// Bot принимает обновления через long polling и раздаёт их обработчикам.
type Bot struct {
	bot       *telego.Bot
	handler   *handler.Handler
	operators []int64
}

func New(bot *telego.Bot, h *handler.Handler, operators []int64) *Bot {
	return &Bot{
		bot:       bot,
		handler:   h,
		operators: operators,
	}
}

// Run блокируется до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	updates, err := b.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: longPollingTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to get updates: %w", err)
	}

	botHandler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	b.handler.RegisterRoutes(botHandler, b.operators)

	go func() {
		if err := botHandler.Start(); err != nil {
			logger(ctx).Error("bot handler stopped", logx.Error(err))
		}
	}()

	logger(ctx).Info("bot started", "operators", len(b.operators))

	<-ctx.Done()

	if err := botHandler.Stop(); err != nil {
		logger(ctx).Error("failed to stop bot handler", logx.Error(err))
	}

	logger(ctx).Info("bot stopped")

	return nil
}
