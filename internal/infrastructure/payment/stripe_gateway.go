package payment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"tg_listing/internal/domain/entity"
)

const (
	metadataOfferID = "offer_id"
	metadataBuyerID = "buyer_id"
)

// StripeGateway создаёт Stripe Checkout Session для международной оплаты.
type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway принимает необязательный apiURL для подмены адреса API
// (например, при работе через прокси или эмулятор).
func NewStripeGateway(secretKey, apiURL string, httpClient *http.Client) *StripeGateway {
	cfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if apiURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(apiURL, "/"))
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}

	return &StripeGateway{sc: client.New(secretKey, backends)}
}

func (g *StripeGateway) CreatePayment(ctx context.Context, p entity.PaymentRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.AttemptID),
		SuccessURL:        stripe.String(p.ReturnURL),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(p.Currency)),
					UnitAmount: stripe.Int64(p.Amount * 100),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataOfferID, p.OfferID)
	params.AddMetadata(metadataBuyerID, strconv.FormatInt(p.BuyerID, 10))

	session, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("stripe checkout session %s has no url", session.ID)
	}

	return session.URL, nil
}
