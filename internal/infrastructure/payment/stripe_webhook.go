package payment

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/errcodes"
)

const (
	StripeSignatureHeader = "Stripe-Signature"

	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	stripeSignatureTolerance   = 5 * time.Minute
	stripePaymentStatusPaid    = "paid"
)

// StripeWebhook проверяет подпись Stripe-Signature и извлекает попытку оплаты
// из client_reference_id завершённой сессии.
type StripeWebhook struct {
	secret string
}

func NewStripeWebhook(secret string) *StripeWebhook {
	return &StripeWebhook{secret: secret}
}

func (w *StripeWebhook) Verify(ctx context.Context, payload []byte, signature string) (c entity.Confirmation, ok bool, err error) {
	if w.secret == "" {
		return entity.Confirmation{}, false, domain.NewError(errcodes.InvalidPaymentProof, "stripe webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, w.secret, webhook.ConstructEventOptions{
		Tolerance:                stripeSignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return entity.Confirmation{}, false, domain.WrapError(err, errcodes.InvalidPaymentProof, "stripe signature rejected")
	}

	switch string(event.Type) {
	case eventCheckoutCompleted, eventAsyncPaymentSucceeded:
	default:
		logger(ctx).Debug("stripe event ignored", "event_id", event.ID, "type", event.Type)
		return entity.Confirmation{}, false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return entity.Confirmation{}, false, domain.WrapError(err, errcodes.ValidationError, "stripe checkout session payload")
	}

	logger(ctx).Info("stripe checkout event",
		"event_id", event.ID,
		"session_id", session.ID,
		"payment_status", session.PaymentStatus,
	)

	if string(session.PaymentStatus) != stripePaymentStatusPaid || session.ClientReferenceID == "" {
		return entity.Confirmation{}, false, nil
	}

	return entity.Confirmation{
		AttemptID: session.ClientReferenceID,
		Source:    entity.ProofSourceIntlWebhook,
	}, true, nil
}
