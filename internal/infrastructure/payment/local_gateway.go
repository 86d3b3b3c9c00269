package payment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/rest"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals // skip
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip
)

const maxErrorBody = 512

// LocalGateway: REST-клиент внутреннего платёжного шлюза.
// Авторизация и логирование запросов делаются транспортом httpx.
type LocalGateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewLocalGateway(baseURL string, httpClient *http.Client) *LocalGateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &LocalGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (g *LocalGateway) CreatePayment(ctx context.Context, p entity.PaymentRequest) (string, error) {
	body, err := json.Marshal(rest.CreatePaymentRequest{
		Reference: p.AttemptID,
		Subject:   p.Title,
		Amount:    p.Amount,
		Currency:  p.Currency,
		ReturnURL: p.ReturnURL,
		CancelURL: p.CancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("local gateway: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out rest.CreatePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("json.Decode: %w", err)
	}
	if err := validate.StructCtx(ctx, out); err != nil {
		return "", fmt.Errorf("local gateway response: %w", err)
	}

	return out.PaymentURL, nil
}
