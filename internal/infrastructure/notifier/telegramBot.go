package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg_listing/internal/domain/entity"
)

// BotAPI: методы telego.Bot, которыми пользуется нотификатор.
type BotAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	SendDocument(ctx context.Context, params *telego.SendDocumentParams) (*telego.Message, error)
}

// TelegramBot публикует объявления в канал и пишет покупателям и операторам.
type TelegramBot struct {
	bot       BotAPI
	operators []int64
}

func NewTelegramBot(bot BotAPI) *TelegramBot {
	return &TelegramBot{bot: bot}
}

// WithOperators задаёт получателей отчётов о недоставленных задачах.
func (b *TelegramBot) WithOperators(ids ...int64) *TelegramBot {
	b.operators = ids
	return b
}

// ChatID разбирает идентификатор канала: число или @username.
func ChatID(raw string) telego.ChatID {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tu.ID(id)
	}
	if !strings.HasPrefix(raw, "@") {
		raw = "@" + raw
	}
	return tu.Username(raw)
}

// Publish отправляет задачу очереди в канал.
func (b *TelegramBot) Publish(ctx context.Context, task entity.DeliveryTask) error {
	msg := tu.Message(ChatID(task.ChatID), task.Text).
		WithParseMode(telego.ModeHTML)
	if kb := keyboard(task.Buttons); kb != nil {
		msg = msg.WithReplyMarkup(kb)
	}

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *TelegramBot) SendText(ctx context.Context, chatID int64, text string, buttons [][]entity.Button) error {
	msg := tu.Message(tu.ID(chatID), text).
		WithParseMode(telego.ModeHTML)
	if kb := keyboard(buttons); kb != nil {
		msg = msg.WithReplyMarkup(kb)
	}

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendReceipt пересылает квитанцию тем же типом вложения, что прислал покупатель.
func (b *TelegramBot) SendReceipt(ctx context.Context, chatID int64, receipt entity.Receipt, caption string) error {
	file := tu.FileFromID(receipt.FileID)

	if receipt.IsPhoto {
		photo := tu.Photo(tu.ID(chatID), file).
			WithCaption(caption).
			WithParseMode(telego.ModeHTML)
		if _, err := b.bot.SendPhoto(ctx, photo); err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
		return nil
	}

	doc := tu.Document(tu.ID(chatID), file).
		WithCaption(caption).
		WithParseMode(telego.ModeHTML)
	if _, err := b.bot.SendDocument(ctx, doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

// HandleDeadLetter сообщает операторам о задаче, которую не удалось опубликовать.
func (b *TelegramBot) HandleDeadLetter(ctx context.Context, letter entity.DeadLetter) error {
	text := fmt.Sprintf(deadLetterText,
		html.EscapeString(letter.Task.ID),
		letter.Task.Attempts,
		html.EscapeString(letter.Task.LastError),
		html.EscapeString(preview(letter.Task.Text)),
	)

	var errs []error
	for _, id := range b.operators {
		if err := b.SendText(ctx, id, text, nil); err != nil {
			errs = append(errs, fmt.Errorf("operator %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

const (
	deadLetterText = "⚠️ <b>No se pudo publicar en el canal</b>\n\n" +
		"Tarea: <code>%s</code>\n" +
		"Intentos: %d\n" +
		"Error: %s\n\n" +
		"%s"

	previewLen = 300
)

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "…"
}

func keyboard(rows [][]entity.Button) *telego.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	out := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			b := tu.InlineKeyboardButton(btn.Text)
			switch {
			case btn.URL != "":
				b = b.WithURL(btn.URL)
			case btn.CallbackData != "":
				b = b.WithCallbackData(btn.CallbackData)
			default:
				continue
			}
			buttons = append(buttons, b)
		}
		if len(buttons) > 0 {
			out = append(out, tu.InlineKeyboardRow(buttons...))
		}
	}
	if len(out) == 0 {
		return nil
	}

	return tu.InlineKeyboard(out...)
}
