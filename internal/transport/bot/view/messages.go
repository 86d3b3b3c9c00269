package view

import (
	"fmt"
	"html"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/pkg/errcodes"
)

const (
	WelcomeMessage = "👋 <b>¡Bienvenido!</b>\n\n" +
		"¿Quieres comprar juegos digitales para tu Nintendo Switch?\n" +
		"Explora los packs y cuentas en nuestro canal y sigue las instrucciones para comprar.\n\n" +
		"Si necesitas ayuda, escribe /help."

	HelpMessage = "👋 <b>¿Cómo comprar?</b>\n\n" +
		"1️⃣ Elige el pack o cuenta que te interese en el canal.\n" +
		"2️⃣ Pulsa el botón <b>Comprar</b> para iniciar la compra.\n" +
		"3️⃣ Elige el método de pago y completa el pago.\n" +
		"4️⃣ Si pagaste por transferencia, envía el comprobante aquí mismo (como foto o archivo).\n" +
		"5️⃣ Un administrador validará tu pago y te contactará para la instalación.\n\n" +
		"<b>Comandos útiles:</b>\n" +
		"/start — Ver mensaje de bienvenida\n" +
		"/help — Ver este mensaje de ayuda"

	QueuedMessage      = "🕓 Mensaje agregado a la cola de envío. Se publicará pronto en el canal."
	NotFoundMessage    = "❌ Producto no encontrado o expirado."
	PaymentNotFound    = "❌ No encontramos ese pago. Si ya pagaste, envía el comprobante aquí mismo."
	ChooseRailMessage  = "<b>¿Cómo continuar?</b>\n\n1️⃣ Elige un método de pago.\n2️⃣ Completa el pago.\n3️⃣ Si tienes dudas, pulsa <b>❓ Ayuda</b>."
	NoRailsMessage     = "⚠️ Por ahora no hay métodos de pago disponibles. Escríbenos para coordinar la compra."
	PayLinkMessage     = "💳 Pulsa el botón para pagar <b>%s %s</b>.\n\nAl terminar volverás aquí y te avisaremos cuando se confirme el pago."
	FallbackMessage    = "⚠️ No pudimos generar tu enlace de pago. Entra a la pasarela y paga indicando el pedido <code>%s</code>, luego envía el comprobante aquí mismo."
	RequestFailed      = "❌ No pudimos procesar tu solicitud. Inténtalo de nuevo en unos minutos."
	ReceiptPrompt      = "Por favor, envía una foto o archivo del comprobante de transferencia."
	ConfirmUsage       = "❌ Uso: /confirm <code>ID_DE_INTENTO</code>"
	ConfirmDone        = "✅ Pago <code>%s</code> confirmado. Se avisó al comprador."
	ConfirmDuplicate   = "ℹ️ El pago <code>%s</code> ya estaba confirmado."
	ConfirmNotFound    = "❌ Intento <code>%s</code> no encontrado o expirado."
	PayButtonText      = "💳 Ir a pagar"
	HelpButtonText     = "❓ Ayuda"
	listingTemplateTip = "Formato correcto:\n\n" +
		"• Cuenta:\nNickname: Panda\nTransaction:\nMario - 59.99\nZelda - 69.99\n====PRICE 20\n\n" +
		"• Pack:\n#1234\nList Game\nMario\nZelda\nEnd Game List\nPrice: 20"
)

var railLabels = map[entity.Rail]string{
	entity.RailLocal: "💳 Pago local (CLP)",
	entity.RailIntl:  "🌎 Pago internacional (USD)",
	entity.RailBank:  "💸 Transferencia bancaria",
}

func RailLabel(r entity.Rail) string {
	if label, ok := railLabels[r]; ok {
		return label
	}
	return r.String()
}

var fieldNames = map[string]string{
	listing.FieldNickname: "Nickname",
	listing.FieldCode:     "#código",
	listing.FieldItems:    "lista de juegos",
	listing.FieldPrice:    "Price",
}

// Rejection: ответ оператору на объявление, которое не удалось разобрать.
func Rejection(err error) string {
	appErr, ok := domain.AsAppError(err)
	if !ok {
		return RequestFailed
	}

	switch appErr.Code {
	case errcodes.ListingPolicyRejected:
		return fmt.Sprintf("🚫 Cuenta rechazada: tiene %d consolas vinculadas. Solo se publican cuentas con menos de 2.", appErr.Count)
	case errcodes.ListingMissingField:
		name := fieldNames[appErr.Field]
		if name == "" {
			return "❌ Formato no válido.\n\n" + listingTemplateTip
		}
		return fmt.Sprintf("❌ Formato no válido: falta %s.\n\n%s", name, listingTemplateTip)
	default:
		return RequestFailed
	}
}

func PayLink(amount int64, currency string) string {
	return fmt.Sprintf(PayLinkMessage, listing.FormatThousands(amount), html.EscapeString(currency))
}

func Fallback(attemptID string) string {
	return fmt.Sprintf(FallbackMessage, html.EscapeString(attemptID))
}

func Confirmed(attemptID string, duplicate bool) string {
	if duplicate {
		return fmt.Sprintf(ConfirmDuplicate, html.EscapeString(attemptID))
	}
	return fmt.Sprintf(ConfirmDone, html.EscapeString(attemptID))
}

func QueueStats(stats entity.DeliveryStats, letters []entity.DeadLetter) string {
	text := fmt.Sprintf(
		"📊 <b>Cola de publicación</b>\n\n"+
			"🕓 Pendientes: %d\n"+
			"✅ Publicados: %d\n"+
			"🔁 Reintentos: %d\n"+
			"☠️ Descartados: %d",
		stats.Pending, stats.Delivered, stats.Retried, stats.DeadLettered,
	)
	if len(letters) == 0 {
		return text
	}

	last := letters[len(letters)-1]
	return text + fmt.Sprintf("\n\nÚltimo descartado: <code>%s</code> (%s)",
		html.EscapeString(last.Task.ID),
		html.EscapeString(last.Task.LastError),
	)
}

// IsNotFound: ошибки, которые покупатель видит как «не найдено».
func IsNotFound(err error) bool {
	return domain.HasCode(err, errcodes.OfferNotFound) || domain.HasCode(err, errcodes.PurchaseNotFound)
}

func UnknownAttempt(attemptID string) string {
	return fmt.Sprintf(ConfirmNotFound, html.EscapeString(attemptID))
}
