package purchase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/errcodes"
)

const tokenIssuer = "tg_listing"

var ErrInvalidProof = domain.NewError(errcodes.InvalidPaymentProof, "payment proof is not valid")

// ReturnClaims привязывает ссылку возврата к конкретной попытке оплаты.
type ReturnClaims struct {
	AttemptID string      `json:"attempt_id"`
	OfferID   string      `json:"offer_id"`
	BuyerID   int64       `json:"buyer_id"`
	Rail      entity.Rail `json:"rail"`
	jwt.RegisteredClaims
}

// Tokens выпускает и проверяет подписанные HS256 токены для ссылки возврата.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

func (t *Tokens) Issue(intent entity.PurchaseIntent) (string, error) {
	now := t.now()
	claims := &ReturnClaims{
		AttemptID: intent.AttemptID,
		OfferID:   intent.OfferID,
		BuyerID:   intent.BuyerID,
		Rail:      intent.Rail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   intent.AttemptID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign return token: %w", err)
	}

	return signed, nil
}

func (t *Tokens) Verify(token string) (ReturnClaims, error) {
	claims := ReturnClaims{}

	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ReturnClaims{}, domain.WrapError(err, errcodes.InvalidPaymentProof, "return token rejected")
	}
	if !parsed.Valid || claims.AttemptID == "" || claims.Subject != claims.AttemptID {
		return ReturnClaims{}, ErrInvalidProof
	}

	return claims, nil
}
