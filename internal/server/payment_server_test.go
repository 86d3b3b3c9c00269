package server_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/internal/infrastructure/payment"
	"tg_listing/internal/server"
	"tg_listing/pkg/errcodes"
	"tg_listing/pkg/logx"
	"tg_listing/pkg/rest"
	"tg_listing/pkg/tests"
)

type fakePurchases struct {
	mu        sync.Mutex
	confirmed map[string]bool
	calls     []entity.Confirmation
}

func newFakePurchases(attempts ...string) *fakePurchases {
	f := &fakePurchases{confirmed: make(map[string]bool)}
	for _, a := range attempts {
		f.confirmed[a] = false
	}
	return f
}

func (f *fakePurchases) Confirm(_ context.Context, c entity.Confirmation) (purchase.ConfirmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	done, ok := f.confirmed[c.AttemptID]
	if !ok {
		return purchase.ConfirmResult{}, purchase.ErrPurchaseNotFound
	}
	f.calls = append(f.calls, c)
	f.confirmed[c.AttemptID] = true

	return purchase.ConfirmResult{
		Intent:    entity.PurchaseIntent{AttemptID: c.AttemptID, State: entity.PurchaseStateConfirmed},
		Duplicate: done,
	}, nil
}

func (f *fakePurchases) ReturnStatus(_ context.Context, token string) (entity.PurchaseIntent, error) {
	if token != "good-token" {
		return entity.PurchaseIntent{}, purchase.ErrInvalidProof
	}
	return entity.PurchaseIntent{AttemptID: "01HZ", State: entity.PurchaseStateRedirectIssued}, nil
}

func newTestServer(t *testing.T, purchases *fakePurchases, local *payment.LocalWebhook) *httptest.Server {
	t.Helper()

	var verifier interface {
		Verify(ctx context.Context, payload []byte, signature string) (entity.Confirmation, bool, error)
	}
	if local != nil {
		verifier = local
	}

	s := server.NewServer(server.NewPaymentServer(purchases, verifier, nil, listing.Links{BotUsername: "shop_bot"}))
	srv := httptest.NewServer(server.NewRouter(s, logx.NewSensitiveDataMasker(), 4096))
	t.Cleanup(srv.Close)

	return srv
}

func TestLocalWebhook(t *testing.T) {
	wh := payment.NewLocalWebhook("whsec")
	paid := `{"payment_id":"pay_1","reference":"01HZ","status":"paid","amount":40000}`
	pending := `{"payment_id":"pay_1","reference":"01HZ","status":"pending","amount":40000}`
	unknown := `{"payment_id":"pay_2","reference":"nope","status":"paid","amount":1}`

	testCases := []struct {
		name       string
		body       string
		signature  string
		repeat     int
		statusCode int
		ack        rest.WebhookAck
		errCode    string
		confirms   int
	}{
		{
			name:       "Paid",
			body:       paid,
			signature:  wh.Sign([]byte(paid)),
			repeat:     1,
			statusCode: http.StatusOK,
			ack:        rest.WebhookAck{Received: true, AttemptID: "01HZ"},
			confirms:   1,
		},
		{
			name:       "Paid twice",
			body:       paid,
			signature:  wh.Sign([]byte(paid)),
			repeat:     2,
			statusCode: http.StatusOK,
			ack:        rest.WebhookAck{Received: true, Duplicate: true, AttemptID: "01HZ"},
			confirms:   2,
		},
		{
			name:       "Pending",
			body:       pending,
			signature:  wh.Sign([]byte(pending)),
			repeat:     1,
			statusCode: http.StatusOK,
			ack:        rest.WebhookAck{Received: true},
		},
		{
			name:       "Bad signature",
			body:       paid,
			signature:  wh.Sign([]byte(pending)),
			repeat:     1,
			statusCode: http.StatusUnauthorized,
			errCode:    string(errcodes.InvalidPaymentProof),
		},
		{
			name:       "Unknown attempt",
			body:       unknown,
			signature:  wh.Sign([]byte(unknown)),
			repeat:     1,
			statusCode: http.StatusNotFound,
			errCode:    string(errcodes.PurchaseNotFound),
		},
		{
			name:       "Broken payload",
			body:       `{"reference":`,
			signature:  wh.Sign([]byte(`{"reference":`)),
			repeat:     1,
			statusCode: http.StatusBadRequest,
			errCode:    string(errcodes.ValidationError),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			purchases := newFakePurchases("01HZ")
			srv := newTestServer(t, purchases, wh)
			client := tests.NewAPIClient(srv.URL, srv.Client())

			var (
				resp    *http.Response
				ack     rest.WebhookAck
				errResp rest.Error
				err     error
			)
			for range tc.repeat {
				ack, errResp = rest.WebhookAck{}, rest.Error{}
				resp, err = client.PostJSON(
					context.Background(),
					"/v1/payments/local/webhook",
					http.Header{payment.SignatureHeader: []string{tc.signature}},
					tc.body,
					&ack,
					&errResp,
				)
				rq.NoError(err)
			}

			rq.Equal(tc.statusCode, resp.StatusCode)
			rq.Len(purchases.calls, tc.confirms)
			if tc.errCode != "" {
				rq.Equal(tc.errCode, string(errResp.Code))
				rq.NotEmpty(errResp.SupportID)
				return
			}
			rq.Equal(tc.ack, ack)
		})
	}
}

func TestIntlWebhookNotConfigured(t *testing.T) {
	rq := require.New(t)

	srv := newTestServer(t, newFakePurchases("01HZ"), nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/v1/payments/intl/webhook", bytes.NewReader([]byte(`{}`)))
	rq.NoError(err)

	resp, err := srv.Client().Do(req)
	rq.NoError(err)
	defer resp.Body.Close()

	rq.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestReturnLink(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		statusCode int
		location   string
	}{
		{
			name:       "Valid token",
			query:      "?token=good-token",
			statusCode: http.StatusFound,
			location:   "https://t.me/shop_bot?start=paid_01HZ",
		},
		{
			name:       "Forged token",
			query:      "?token=forged",
			statusCode: http.StatusUnauthorized,
		},
		{
			name:       "Missing token",
			statusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			purchases := newFakePurchases("01HZ")
			srv := newTestServer(t, purchases, nil)

			client := srv.Client()
			client.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}

			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/v1/payments/return"+tc.query, http.NoBody)
			rq.NoError(err)

			resp, err := client.Do(req)
			rq.NoError(err)
			defer resp.Body.Close()

			rq.Equal(tc.statusCode, resp.StatusCode)
			rq.Equal(tc.location, resp.Header.Get("Location"))
			rq.Empty(purchases.calls)
		})
	}
}

func TestHealthcheck(t *testing.T) {
	rq := require.New(t)

	srv := newTestServer(t, newFakePurchases(), nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/healthcheck", http.NoBody)
	rq.NoError(err)

	resp, err := srv.Client().Do(req)
	rq.NoError(err)
	defer resp.Body.Close()

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	rq.NoError(err)

	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal("OK", body.String())
	rq.NotEmpty(resp.Header.Get("X-Trace-Id"))
}
