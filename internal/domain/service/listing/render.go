package listing

import (
	"html"
	"strconv"
	"strings"

	"tg_listing/internal/domain/entity"
)

const (
	itemBullet = "🎲"
	separator  = "━━━━━━━━━━━━━━"
)

// Render собирает HTML-текст объявления для канала.
// Результат зависит только от полей offer и contact.
func Render(offer entity.Offer, contact string) string {
	var b strings.Builder

	if offer.Kind == entity.OfferKindAccount {
		b.WriteString("🏠 <b>CUENTA NINTENDO</b>\n")
		b.WriteString("👤 <b>Nickname:</b> <code>")
		b.WriteString(html.EscapeString(offer.Nickname))
		b.WriteString("</code>\n\n")
	} else {
		b.WriteString("🏠 <b>PACK #")
		b.WriteString(html.EscapeString(offer.Code))
		b.WriteString("</b>\n")
	}

	b.WriteString("🎮 <b>JUEGOS INCLUIDOS</b>\n")
	b.WriteString(separator)
	b.WriteString("\n")
	for _, item := range offer.Items {
		b.WriteString(itemBullet)
		b.WriteString(" ")
		b.WriteString(html.EscapeString(item))
		b.WriteString("\n")
	}
	b.WriteString(separator)
	b.WriteString("\n\n")

	b.WriteString("💰 <b>PRECIO:</b>\n")
	b.WriteString("<b>")
	b.WriteString(FormatThousands(offer.PriceLocal))
	b.WriteString(" CLP</b> 🇨🇱 <b>")
	b.WriteString(strconv.FormatInt(offer.PriceIntl, 10))
	b.WriteString(".00 USD</b> 🇺🇸\n")

	b.WriteString("⏰ <b>")
	b.WriteString(html.EscapeString(offer.AvailabilityNote))
	b.WriteString("</b>\n")

	b.WriteString("🐼 <b>CONTÁCTAME:</b> ")
	b.WriteString(html.EscapeString(contact))

	return b.String()
}

// FormatThousands форматирует число с запятой между тысячами: 35000 -> "35,000".
func FormatThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
