package view

import (
	"strings"

	tu "github.com/mymmrac/telego/telegoutil"

	"tg_listing/internal/domain/entity"
)

const (
	CallbackHelp      = "help"
	CallbackPayPrefix = "pay:"

	startBuy  = "buy_"
	startPaid = "paid_"
)

// StartAction: что делать с параметром deep link /start.
type StartAction int

const (
	StartWelcome StartAction = iota
	StartBuy
	StartHelp
	StartPaid
)

// ParseStart разбирает текст команды /start и её параметр.
func ParseStart(text string) (StartAction, string) {
	_, _, args := tu.ParseCommand(text)
	if len(args) == 0 {
		return StartWelcome, ""
	}

	payload := strings.TrimSpace(args[0])
	switch {
	case strings.HasPrefix(payload, startBuy) && len(payload) > len(startBuy):
		return StartBuy, strings.TrimPrefix(payload, startBuy)
	case strings.HasPrefix(payload, startPaid) && len(payload) > len(startPaid):
		return StartPaid, strings.TrimPrefix(payload, startPaid)
	case payload == "help" || payload == "ayuda":
		return StartHelp, ""
	default:
		return StartWelcome, ""
	}
}

// PayCallback собирает данные кнопки выбора способа оплаты (pay:<rail>:<offer>).
func PayCallback(r entity.Rail, offerID string) string {
	return CallbackPayPrefix + r.String() + ":" + offerID
}

// ParsePayCallback возвращает ok=false для любых неожиданных данных.
func ParsePayCallback(data string) (entity.Rail, string, bool) {
	rest, found := strings.CutPrefix(data, CallbackPayPrefix)
	if !found {
		return "", "", false
	}

	raw, offerID, found := strings.Cut(rest, ":")
	if !found || offerID == "" {
		return "", "", false
	}

	r, ok := entity.ParseRail(raw)
	if !ok {
		return "", "", false
	}

	return r, offerID, true
}

// CommandArg: первый аргумент команды оператора, например /confirm <attempt>.
func CommandArg(text string) (string, bool) {
	_, _, args := tu.ParseCommand(text)
	if len(args) == 0 || args[0] == "" {
		return "", false
	}
	return args[0], true
}
