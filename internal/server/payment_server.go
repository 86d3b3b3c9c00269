package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/internal/infrastructure/payment"
	"tg_listing/pkg/httpx/reply"
	"tg_listing/pkg/logx"
)

const maxWebhookBody = 64 << 10

type purchaseService interface {
	Confirm(ctx context.Context, c entity.Confirmation) (purchase.ConfirmResult, error)
	ReturnStatus(ctx context.Context, token string) (entity.PurchaseIntent, error)
}

// ProofVerifier проверяет подпись уведомления шлюза. ok=false: событие
// корректное, но оплаты в нём нет.
type ProofVerifier interface {
	Verify(ctx context.Context, payload []byte, signature string) (c entity.Confirmation, ok bool, err error)
}

type PaymentServer struct {
	purchases purchaseService
	local     ProofVerifier
	intl      ProofVerifier
	links     listing.Links
}

// NewPaymentServer принимает nil вместо проверяющего для ненастроенного канала.
func NewPaymentServer(
	purchases purchaseService,
	local ProofVerifier,
	intl ProofVerifier,
	links listing.Links,
) PaymentServer {
	return PaymentServer{
		purchases: purchases,
		local:     local,
		intl:      intl,
		links:     links,
	}
}

func (s PaymentServer) postV1LocalWebhook(w http.ResponseWriter, r *http.Request) error {
	return s.webhook(w, r, s.local, payment.SignatureHeader)
}

func (s PaymentServer) postV1IntlWebhook(w http.ResponseWriter, r *http.Request) error {
	return s.webhook(w, r, s.intl, payment.StripeSignatureHeader)
}

func (s PaymentServer) webhook(w http.ResponseWriter, r *http.Request, verifier ProofVerifier, header string) error {
	ctx := r.Context()

	if verifier == nil {
		return purchase.ErrRailNotConfigured
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}

	confirmation, ok, err := verifier.Verify(ctx, payload, r.Header.Get(header))
	if err != nil {
		return fmt.Errorf("verifier.Verify: %w", err)
	}
	if !ok {
		reply.JSON(ctx, w, http.StatusOK, newRESTWebhookAck(purchase.ConfirmResult{}, true))
		return nil
	}

	result, err := s.purchases.Confirm(ctx, confirmation)
	if err != nil {
		return fmt.Errorf("purchases.Confirm: %w", err)
	}

	logger(ctx).Info("payment webhook accepted",
		logx.FieldAttemptID, confirmation.AttemptID,
		"source", confirmation.Source,
		"duplicate", result.Duplicate,
	)

	reply.JSON(ctx, w, http.StatusOK, newRESTWebhookAck(result, true))

	return nil
}

// getV1Return проверяет токен возврата и уводит покупателя в бота, где тот
// видит статус попытки. Оплату подтверждает только уведомление шлюза.
func (s PaymentServer) getV1Return(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		return purchase.ErrInvalidProof
	}

	intent, err := s.purchases.ReturnStatus(ctx, token)
	if err != nil {
		return fmt.Errorf("purchases.ReturnStatus: %w", err)
	}

	http.Redirect(w, r, s.links.Start("paid_"+intent.AttemptID), http.StatusFound)

	return nil
}
