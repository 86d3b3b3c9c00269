package server

import (
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"

	"tg_listing/internal/domain"
	"tg_listing/pkg/errcodes"
	"tg_listing/pkg/httpx/reply"
	"tg_listing/pkg/probe"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthcheck", probe.Healthcheck)

	r.Route("/v1", func(r chi.Router) {
		// шлюзы и браузер покупателя, авторизация по подписи или токену
		r.Route("/payments", func(r chi.Router) {
			r.Post("/local/webhook", handler(s.postV1LocalWebhook))
			r.Post("/intl/webhook", handler(s.postV1IntlWebhook))
			r.Get("/return", handler(s.getV1Return))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			replyError(w, r, err)
		}
	}
}

// replyError переводит доменные коды в HTTP-статусы, остальное отдаёт reply.Error.
func replyError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	code, ok := domain.GetCode(err)
	if !ok {
		reply.Error(ctx, w, err)
		return
	}

	switch code {
	case errcodes.InvalidPaymentProof:
		reply.Status(ctx, w, http.StatusUnauthorized, code, err)
	case errcodes.PurchaseNotFound, errcodes.OfferNotFound, errcodes.RailNotConfigured:
		reply.Status(ctx, w, http.StatusNotFound, code, err)
	case errcodes.ValidationError:
		reply.Error(ctx, w, failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(code)))
	default:
		reply.Error(ctx, w, err)
	}
}
