package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/errcodes"
	"tg_listing/pkg/rest"
)

const (
	SignatureHeader = "X-Signature"

	statusPaid = "paid"
)

// LocalWebhook проверяет уведомления внутреннего шлюза:
// тело подписано HMAC-SHA256, подпись в hex передаётся в X-Signature.
type LocalWebhook struct {
	secret []byte
}

func NewLocalWebhook(secret string) *LocalWebhook {
	return &LocalWebhook{secret: []byte(secret)}
}

// Sign возвращает подпись тела. Используется шлюзом и тестами.
func (w *LocalWebhook) Sign(payload []byte) string {
	return hex.EncodeToString(w.mac(payload))
}

// Verify проверяет подпись и разбирает событие. ok=false означает
// корректное событие без оплаты (pending, failed и т.п.).
func (w *LocalWebhook) Verify(ctx context.Context, payload []byte, signature string) (c entity.Confirmation, ok bool, err error) {
	if len(w.secret) == 0 {
		return entity.Confirmation{}, false, domain.NewError(errcodes.InvalidPaymentProof, "local webhook secret is not configured")
	}

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, w.mac(payload)) {
		return entity.Confirmation{}, false, domain.NewError(errcodes.InvalidPaymentProof, "local webhook signature mismatch")
	}

	var event rest.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return entity.Confirmation{}, false, domain.WrapError(err, errcodes.ValidationError, "local webhook payload")
	}
	if err := validate.StructCtx(ctx, event); err != nil {
		return entity.Confirmation{}, false, domain.WrapError(err, errcodes.ValidationError, "local webhook payload")
	}

	logger(ctx).Info("local payment event", "payment_id", event.PaymentID, "status", event.Status)

	if event.Status != statusPaid {
		return entity.Confirmation{}, false, nil
	}

	return entity.Confirmation{
		AttemptID: event.Reference,
		Source:    entity.ProofSourceLocalWebhook,
	}, true, nil
}

func (w *LocalWebhook) mac(payload []byte) []byte {
	mac := hmac.New(sha256.New, w.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
