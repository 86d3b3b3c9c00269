package payment_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/infrastructure/payment"
	"tg_listing/pkg/httpx"
	"tg_listing/pkg/logx"
	"tg_listing/pkg/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func newLocalClient(key string) *http.Client {
	return &http.Client{
		Transport: httpx.NewAuthBearerRoundTripper(
			httpx.NewLoggingRoundTripper(
				http.DefaultTransport,
				httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
			),
			payment.StaticKey(key),
		),
	}
}

func TestLocalGatewayCreatePayment(t *testing.T) {
	rq := require.New(t)

	var got rest.CreatePaymentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal(http.MethodPost, r.Method)
		rq.Equal("/v1/payments", r.URL.Path)
		rq.Equal("Bearer api-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		rq.NoError(err)
		rq.NoError(json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"pay_1","payment_url":"https://pay.local/checkout/pay_1"}`))
	}))
	defer srv.Close()

	gw := payment.NewLocalGateway(srv.URL+"/", newLocalClient("api-key"))

	link, err := gw.CreatePayment(context.Background(), entity.PaymentRequest{
		AttemptID: "01HZ",
		OfferID:   "pack_1_1",
		BuyerID:   7,
		Title:     "pack 1",
		Amount:    40000,
		Currency:  "CLP",
		ReturnURL: "https://t.me/shop_bot?start=paid_01HZ",
		CancelURL: "https://t.me/shop_bot?start=buy_pack_1_1",
	})
	rq.NoError(err)
	rq.Equal("https://pay.local/checkout/pay_1", link)

	rq.Equal("01HZ", got.Reference)
	rq.EqualValues(40000, got.Amount)
	rq.Equal("CLP", got.Currency)
	rq.Equal("https://t.me/shop_bot?start=paid_01HZ", got.ReturnURL)
}

func TestLocalGatewayErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`upstream down`))
			},
		},
		{
			name: "Missing url",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"id":"pay_1"}`))
			},
		},
		{
			name: "Broken json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"id":`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			gw := payment.NewLocalGateway(srv.URL, newLocalClient("api-key"))

			_, err := gw.CreatePayment(context.Background(), entity.PaymentRequest{AttemptID: "x", Amount: 1, Currency: "CLP"})
			require.Error(t, err)
		})
	}
}

func TestLocalGatewayEmptyKey(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		rq.Fail("request must not be sent without a key")
	}))
	defer srv.Close()

	_, err := payment.NewLocalGateway(srv.URL, newLocalClient("")).CreatePayment(context.Background(), entity.PaymentRequest{})
	rq.Error(err)
}
