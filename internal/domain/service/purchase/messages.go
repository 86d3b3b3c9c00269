package purchase

import (
	"fmt"
	"html"
	"strings"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
)

func reminderText() string {
	return "⏰ <b>Recordatorio de compra</b>\n\n" +
		"¿Aún deseas completar tu compra?\n" +
		"Recuerda completar el pago y, si pagaste por transferencia, enviar el comprobante aquí mismo para continuar con la entrega.\n\n" +
		"Si tienes dudas, escribe /help o pulsa el botón de ayuda."
}

func buyerConfirmedText(intent entity.PurchaseIntent) string {
	return fmt.Sprintf(
		"✅ <b>Pago confirmado</b>\n\n"+
			"Pedido: <code>%s</code>\n\n"+
			"<b>Próximos pasos</b>\n"+
			"1️⃣ Ten a mano tu Nintendo Switch conectada a internet.\n"+
			"2️⃣ Un administrador te escribirá para coordinar la instalación.\n"+
			"3️⃣ No cambies la contraseña ni el correo de la cuenta entregada.",
		html.EscapeString(intent.OfferID),
	)
}

func pendingText(intent entity.PurchaseIntent) string {
	return fmt.Sprintf(
		"🕓 <b>Pago pendiente de verificación</b>\n\n"+
			"Pedido: <code>%s</code>\n"+
			"Te avisaremos aquí mismo en cuanto la pasarela confirme el pago.",
		html.EscapeString(intent.OfferID),
	)
}

func operatorConfirmedText(intent entity.PurchaseIntent, source entity.ProofSource) string {
	return fmt.Sprintf(
		"💸 <b>Pago confirmado</b>\n\n"+
			"User ID: <code>%d</code>\n"+
			"Producto: <code>%s</code>\n"+
			"Método: %s\n"+
			"Monto: <b>%s %s</b>\n"+
			"Intento: <code>%s</code>\n"+
			"Origen: %s",
		intent.BuyerID,
		html.EscapeString(intent.OfferID),
		intent.Rail,
		listing.FormatThousands(intent.Amount),
		intent.Currency,
		intent.AttemptID,
		source,
	)
}

func receiptCaption(r entity.Receipt) string {
	var b strings.Builder
	b.WriteString("🧾 <b>Nuevo comprobante de pago</b>\n\n")
	fmt.Fprintf(&b, "Usuario: %s", html.EscapeString(r.FirstName))
	if r.Username != "" {
		fmt.Fprintf(&b, " (@%s)", html.EscapeString(r.Username))
	}
	fmt.Fprintf(&b, "\nUser ID: <code>%d</code>\n", r.BuyerID)
	fmt.Fprintf(&b, "Mensaje: %s", html.EscapeString(r.Caption))
	return b.String()
}

func receiptAckText() string {
	return "✅ Comprobante recibido. Será revisado por un administrador. Te contactaremos pronto."
}

func bankTransferText(details string, amount int64, currency string) string {
	return fmt.Sprintf(
		"💳 <b>Información de pago</b>\n\n%s\n• Monto: <b>%s %s</b>\n\n"+
			"Una vez pagado, envía el comprobante aquí mismo como foto o archivo.",
		details, listing.FormatThousands(amount), currency,
	)
}
