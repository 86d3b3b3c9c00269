package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/xid"

	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/logx"
)

var offersPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "listing_offers_total",
	Help: "Operator listings by parse outcome.",
}, []string{"kind", "outcome"})

type OfferStore interface {
	Put(id string, offer entity.Offer)
}

type Enqueuer interface {
	Enqueue(task entity.DeliveryTask)
}

// Links строит ссылки на бота для кнопок под объявлением.
type Links struct {
	BotUsername string
}

func (l Links) Start(payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", l.BotUsername, payload)
}

func (l Links) Buy(offerID string) string {
	return l.Start("buy_" + offerID)
}

func (l Links) Help() string {
	return l.Start("help")
}

// Service связывает разбор, выдачу ID, кэш и очередь публикации.
type Service struct {
	parser    *Parser
	ids       *IDGenerator
	store     OfferStore
	queue     Enqueuer
	links     Links
	channelID string
	now       func() time.Time
}

func NewService(parser *Parser, ids *IDGenerator, store OfferStore, queue Enqueuer, links Links, channelID string) *Service {
	return &Service{
		parser:    parser,
		ids:       ids,
		store:     store,
		queue:     queue,
		links:     links,
		channelID: channelID,
		now:       time.Now,
	}
}

// Publish разбирает текст оператора, сохраняет объявление и ставит его в очередь.
// Ошибки разбора возвращаются как есть, ничего не сохраняется.
func (s *Service) Publish(ctx context.Context, raw string) (entity.Offer, error) {
	offer, err := s.parser.Parse(raw)
	if err != nil {
		offersPublished.WithLabelValues("", "rejected").Inc()
		logger(ctx).Info("listing rejected", logx.Error(err))
		return entity.Offer{}, err
	}

	offer.ID = s.ids.Generate(offer.Kind, offer.Title())
	s.store.Put(offer.ID, offer)

	s.queue.Enqueue(entity.DeliveryTask{
		ID:         xid.New().String(),
		ChatID:     s.channelID,
		Text:       offer.RenderedText,
		Buttons:    s.buttons(offer.ID),
		EnqueuedAt: s.now(),
	})

	offersPublished.WithLabelValues(offer.Kind.String(), "queued").Inc()
	logger(ctx).Info("listing queued", logx.FieldOfferID, offer.ID, logx.FieldKind, offer.Kind, "items", len(offer.Items))

	return offer.Clone(), nil
}

func (s *Service) buttons(offerID string) [][]entity.Button {
	return [][]entity.Button{
		{{Text: "🛒 Comprar", URL: s.links.Buy(offerID)}},
		{{Text: "❓ Ayuda", URL: s.links.Help()}},
	}
}
