package payment

import (
	"context"
	"errors"
)

// StaticKey: аутентификатор для httpx.AuthBearerRoundTripper с постоянным API-ключом.
type StaticKey string

func (k StaticKey) Authenticate(context.Context) error {
	if k == "" {
		return errors.New("gateway api key is empty")
	}
	return nil
}

func (k StaticKey) BearerToken() string {
	return string(k)
}
