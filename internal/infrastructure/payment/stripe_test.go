package payment_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/internal/infrastructure/payment"
	"tg_listing/pkg/errcodes"
)

// stripeSignature builds a Stripe-Signature header: t=<ts>,v1=hex(HMAC-SHA256(secret, "<ts>.<payload>")).
func stripeSignature(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEvent(eventType, paymentStatus, reference string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": "2023-10-16",
  "type": %q,
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "client_reference_id": %q,
      "payment_status": %q
    }
  }
}`, eventType, reference, paymentStatus))
}

func TestStripeWebhookVerify(t *testing.T) {
	const secret = "whsec_test"

	wh := payment.NewStripeWebhook(secret)
	now := time.Now()

	completed := stripeEvent("checkout.session.completed", "paid", "01HZ")
	unpaid := stripeEvent("checkout.session.completed", "unpaid", "01HZ")
	async := stripeEvent("checkout.session.async_payment_succeeded", "paid", "01HZ")
	other := stripeEvent("customer.created", "paid", "01HZ")

	testCases := []struct {
		name      string
		payload   []byte
		signature string
		ok        bool
		invalid   bool
	}{
		{name: "Completed and paid", payload: completed, signature: stripeSignature(completed, secret, now), ok: true},
		{name: "Async succeeded", payload: async, signature: stripeSignature(async, secret, now), ok: true},
		{name: "Completed unpaid", payload: unpaid, signature: stripeSignature(unpaid, secret, now)},
		{name: "Other event", payload: other, signature: stripeSignature(other, secret, now)},
		{name: "Wrong secret", payload: completed, signature: stripeSignature(completed, "whsec_other", now), invalid: true},
		{name: "Stale timestamp", payload: completed, signature: stripeSignature(completed, secret, now.Add(-time.Hour)), invalid: true},
		{name: "Missing header", payload: completed, signature: "", invalid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			c, ok, err := wh.Verify(context.Background(), tc.payload, tc.signature)
			if tc.invalid {
				rq.True(domain.HasCode(err, errcodes.InvalidPaymentProof))
				return
			}

			rq.NoError(err)
			rq.Equal(tc.ok, ok)
			if ok {
				rq.Equal(entity.Confirmation{AttemptID: "01HZ", Source: entity.ProofSourceIntlWebhook}, c)
			}
		})
	}
}

func TestStripeGatewayCreatePayment(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("/v1/checkout/sessions", r.URL.Path)
		rq.Equal("Bearer sk_test_123", r.Header.Get("Authorization"))
		rq.NoError(r.ParseForm())

		rq.Equal("payment", r.PostForm.Get("mode"))
		rq.Equal("01HZ", r.PostForm.Get("client_reference_id"))
		rq.Equal("usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		rq.Equal("4500", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		rq.Equal("pack_1_1", r.PostForm.Get("metadata[offer_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer srv.Close()

	gw := payment.NewStripeGateway("sk_test_123", srv.URL, srv.Client())

	link, err := gw.CreatePayment(context.Background(), entity.PaymentRequest{
		AttemptID: "01HZ",
		OfferID:   "pack_1_1",
		BuyerID:   7,
		Title:     "pack 1",
		Amount:    45,
		Currency:  "USD",
		ReturnURL: "https://shop.example/v1/payments/return?token=t",
		CancelURL: "https://t.me/shop_bot?start=buy_pack_1_1",
	})
	rq.NoError(err)
	rq.Equal("https://checkout.stripe.com/c/pay/cs_test_1", link)
}

func TestStripeGatewayError(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad amount"}}`))
	}))
	defer srv.Close()

	_, err := payment.NewStripeGateway("sk_test_123", srv.URL, srv.Client()).
		CreatePayment(context.Background(), entity.PaymentRequest{AttemptID: "x", Amount: 1, Currency: "USD"})
	rq.Error(err)
}
