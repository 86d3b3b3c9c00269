package purchase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/pkg/errcodes"
	"tg_listing/pkg/logx"
)

const (
	DefaultReminderDelay = 30 * time.Minute

	currencyIntl = "USD"
	returnPath   = "/v1/payments/return"
)

var (
	ErrOfferNotFound     = domain.NewError(errcodes.OfferNotFound, "offer not found")
	ErrPurchaseNotFound  = domain.NewError(errcodes.PurchaseNotFound, "purchase attempt not found")
	ErrRailNotConfigured = domain.NewError(errcodes.RailNotConfigured, "payment rail is not configured")
)

var (
	purchaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_transitions_total",
		Help: "Purchase flow transitions by resulting state.",
	}, []string{"state"})
	gatewayFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_gateway_fallbacks_total",
		Help: "Payment link failures replaced by the gateway homepage.",
	}, []string{"rail"})
)

// railOrder: порядок кнопок способов оплаты.
var railOrder = []entity.Rail{entity.RailLocal, entity.RailIntl, entity.RailBank}

type OfferReader interface {
	Get(id string) (entity.Offer, bool)
}

type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, buttons [][]entity.Button) error
	SendReceipt(ctx context.Context, chatID int64, receipt entity.Receipt, caption string) error
}

// Gateway создаёт платёж и возвращает URL для перехода покупателя.
type Gateway interface {
	CreatePayment(ctx context.Context, req entity.PaymentRequest) (string, error)
}

type Scheduler interface {
	Schedule(ctx context.Context, intent entity.PurchaseIntent, delay time.Duration) error
	Cancel(ctx context.Context, buyerID int64, offerID string) bool
}

type Journal interface {
	RecordPurchase(ctx context.Context, intent entity.PurchaseIntent, source entity.ProofSource) error
}

type rail struct {
	gateway     Gateway
	fallbackURL string
}

// Checkout: результат открытия покупки.
type Checkout struct {
	Offer  entity.Offer
	Intent entity.PurchaseIntent
	Rails  []entity.Rail
}

// Redirect: куда отправить покупателя после выбора способа оплаты.
type Redirect struct {
	Intent       entity.PurchaseIntent
	URL          string
	Fallback     bool
	Instructions string
}

type ConfirmResult struct {
	Intent    entity.PurchaseIntent
	Duplicate bool
}

type Service struct {
	offers    OfferReader
	intents   *IntentStore
	messenger Messenger
	scheduler Scheduler
	journal   Journal
	tokens    *Tokens
	attempts  *attemptIDs

	rails         map[entity.Rail]rail
	bankDetails   string
	localCurrency string
	operators     []int64
	reminderDelay time.Duration
	publicBaseURL string
	links         listing.Links
	now           func() time.Time
}

func NewService(
	offers OfferReader,
	intents *IntentStore,
	messenger Messenger,
	scheduler Scheduler,
	links listing.Links,
) *Service {
	return &Service{
		offers:        offers,
		intents:       intents,
		messenger:     messenger,
		scheduler:     scheduler,
		attempts:      newAttemptIDs(),
		rails:         make(map[entity.Rail]rail),
		localCurrency: "CLP",
		reminderDelay: DefaultReminderDelay,
		links:         links,
		now:           time.Now,
	}
}

// WithGateway подключает платёжный шлюз. fallbackURL отдаётся покупателю,
// если шлюз не смог создать платёж.
func (s *Service) WithGateway(r entity.Rail, gateway Gateway, fallbackURL string) *Service {
	s.rails[r] = rail{gateway: gateway, fallbackURL: fallbackURL}
	return s
}

// WithBankTransfer включает ручной перевод с указанными реквизитами.
func (s *Service) WithBankTransfer(details string) *Service {
	s.rails[entity.RailBank] = rail{}
	s.bankDetails = details
	return s
}

func (s *Service) WithOperators(ids ...int64) *Service {
	s.operators = append(s.operators, ids...)
	return s
}

func (s *Service) WithLocalCurrency(currency string) *Service {
	s.localCurrency = currency
	return s
}

func (s *Service) WithReminderDelay(delay time.Duration) *Service {
	s.reminderDelay = delay
	return s
}

func (s *Service) WithJournal(journal Journal) *Service {
	s.journal = journal
	return s
}

// WithReturnLinks включает подписанные ссылки возврата через публичный HTTP-адрес.
func (s *Service) WithReturnLinks(publicBaseURL string, tokens *Tokens) *Service {
	s.publicBaseURL = strings.TrimRight(publicBaseURL, "/")
	s.tokens = tokens
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rails возвращает настроенные способы оплаты в порядке показа.
func (s *Service) Rails() []entity.Rail {
	out := make([]entity.Rail, 0, len(s.rails))
	for _, r := range railOrder {
		if _, ok := s.rails[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Open вызывается, когда покупатель переходит по ссылке покупки.
func (s *Service) Open(ctx context.Context, buyerID int64, offerID string) (Checkout, error) {
	offer, ok := s.offers.Get(offerID)
	if !ok {
		purchaseTransitions.WithLabelValues(string(entity.PurchaseStateNotFound)).Inc()
		logger(ctx).Info("offer not found", logx.FieldBuyerID, buyerID, logx.FieldOfferID, offerID)
		return Checkout{}, ErrOfferNotFound
	}

	intent := s.intents.Open(buyerID, offerID, s.now())
	if intent.State != entity.PurchaseStateConfirmed {
		purchaseTransitions.WithLabelValues(string(intent.State)).Inc()
		if err := s.scheduler.Schedule(ctx, intent, s.reminderDelay); err != nil {
			logger(ctx).Error("schedule reminder", logx.FieldBuyerID, buyerID, logx.FieldOfferID, offerID, logx.Error(err))
		}
	}

	return Checkout{
		Offer:  offer,
		Intent: intent,
		Rails:  s.Rails(),
	}, nil
}

// SelectRail создаёт попытку оплаты для выбранного способа.
// Ошибка шлюза не прерывает покупку: покупатель получает адрес шлюза по умолчанию.
func (s *Service) SelectRail(ctx context.Context, buyerID int64, offerID string, r entity.Rail) (Redirect, error) {
	cfg, ok := s.rails[r]
	if !ok {
		return Redirect{}, ErrRailNotConfigured
	}

	offer, ok := s.offers.Get(offerID)
	if !ok {
		purchaseTransitions.WithLabelValues(string(entity.PurchaseStateNotFound)).Inc()
		return Redirect{}, ErrOfferNotFound
	}

	if existing, ok := s.intents.Get(buyerID, offerID); ok && existing.State == entity.PurchaseStateConfirmed {
		return Redirect{Intent: existing}, nil
	}

	amount, currency := offer.PriceLocal, s.localCurrency
	if r == entity.RailIntl {
		amount, currency = offer.PriceIntl, currencyIntl
	}

	attemptID := s.attempts.next()
	intent := s.intents.IssueAttempt(buyerID, offerID, attemptID, r, amount, currency, s.now())
	purchaseTransitions.WithLabelValues(string(intent.State)).Inc()

	log := logger(ctx).With(
		logx.FieldBuyerID, buyerID,
		logx.FieldOfferID, offerID,
		logx.FieldRail, r,
		logx.FieldAttemptID, attemptID,
	)

	if r == entity.RailBank {
		log.Info("bank transfer requested")
		return Redirect{
			Intent:       intent,
			Instructions: bankTransferText(s.bankDetails, amount, currency),
		}, nil
	}

	returnURL, err := s.returnURL(intent)
	if err != nil {
		log.Error("build return url", logx.Error(err))
		returnURL = s.links.Start("paid_" + attemptID)
	}

	link, err := cfg.gateway.CreatePayment(ctx, entity.PaymentRequest{
		AttemptID: attemptID,
		OfferID:   offerID,
		BuyerID:   buyerID,
		Title:     fmt.Sprintf("%s %s", offer.Kind, offer.Title()),
		Amount:    amount,
		Currency:  currency,
		ReturnURL: returnURL,
		CancelURL: s.links.Buy(offerID),
	})
	if err != nil {
		gatewayFallbacks.WithLabelValues(r.String()).Inc()
		log.Warn("payment link failed, using fallback", logx.Error(domain.WrapError(err, errcodes.PaymentLinkFailed, "create payment")))
		return Redirect{Intent: intent, URL: cfg.fallbackURL, Fallback: true}, nil
	}

	log.Info("payment link issued")
	return Redirect{Intent: intent, URL: link}, nil
}

func (s *Service) returnURL(intent entity.PurchaseIntent) (string, error) {
	if s.tokens == nil || s.publicBaseURL == "" {
		return s.links.Start("paid_" + intent.AttemptID), nil
	}

	token, err := s.tokens.Issue(intent)
	if err != nil {
		return "", err
	}
	return s.publicBaseURL + returnPath + "?token=" + url.QueryEscape(token), nil
}

// Confirm отмечает оплату подтверждённой. Вызывается только после проверки
// подписи шлюза или решения оператора.
// Повторное подтверждение ничего не отправляет.
func (s *Service) Confirm(ctx context.Context, c entity.Confirmation) (ConfirmResult, error) {
	intent, duplicate, found := s.intents.Confirm(c.AttemptID, s.now())
	if !found {
		logger(ctx).Warn("confirmation for unknown attempt", logx.FieldAttemptID, c.AttemptID, "source", c.Source)
		return ConfirmResult{}, ErrPurchaseNotFound
	}

	log := logger(ctx).With(
		logx.FieldBuyerID, intent.BuyerID,
		logx.FieldOfferID, intent.OfferID,
		logx.FieldAttemptID, c.AttemptID,
		"source", c.Source,
	)

	if duplicate {
		log.Info("duplicate confirmation ignored")
		return ConfirmResult{Intent: intent, Duplicate: true}, nil
	}

	purchaseTransitions.WithLabelValues(string(entity.PurchaseStateConfirmed)).Inc()
	log.Info("purchase confirmed")

	s.scheduler.Cancel(ctx, intent.BuyerID, intent.OfferID)

	text := operatorConfirmedText(intent, c.Source)
	for _, op := range s.operators {
		if err := s.messenger.SendText(ctx, op, text, nil); err != nil {
			log.Error("notify operator", logx.FieldChatID, op, logx.Error(err))
		}
	}

	if err := s.messenger.SendText(ctx, intent.BuyerID, buyerConfirmedText(intent), s.helpButtons()); err != nil {
		log.Error("notify buyer", logx.Error(err))
	}

	if s.journal != nil {
		if err := s.journal.RecordPurchase(ctx, intent, c.Source); err != nil {
			log.Error("journal purchase", logx.Error(err))
		}
	}

	return ConfirmResult{Intent: intent}, nil
}

// ReturnStatus проверяет токен ссылки возврата и отдаёт текущее состояние
// попытки. Токен выдаётся до оплаты, поэтому ничего не подтверждает:
// подтверждение приходит только из подписанного уведомления шлюза или от оператора.
func (s *Service) ReturnStatus(ctx context.Context, token string) (entity.PurchaseIntent, error) {
	if s.tokens == nil {
		return entity.PurchaseIntent{}, ErrInvalidProof
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return entity.PurchaseIntent{}, err
	}

	intent, ok := s.intents.ByAttempt(claims.AttemptID)
	if !ok {
		return entity.PurchaseIntent{}, ErrPurchaseNotFound
	}
	if intent.BuyerID != claims.BuyerID || intent.OfferID != claims.OfferID {
		return entity.PurchaseIntent{}, ErrInvalidProof
	}

	logger(ctx).Info("buyer returned from gateway",
		logx.FieldBuyerID, intent.BuyerID,
		logx.FieldAttemptID, claims.AttemptID,
		"state", intent.State,
	)
	return intent, nil
}

// Status отвечает на deep link paid_<attempt>. Сам по себе ничего не подтверждает.
func (s *Service) Status(ctx context.Context, buyerID int64, attemptID string) (entity.PurchaseIntent, error) {
	intent, ok := s.intents.ByAttempt(attemptID)
	if !ok || intent.BuyerID != buyerID {
		logger(ctx).Info("status for unknown attempt", logx.FieldBuyerID, buyerID, logx.FieldAttemptID, attemptID)
		return entity.PurchaseIntent{}, ErrPurchaseNotFound
	}
	return intent, nil
}

// StatusMessage: текст для покупателя по состоянию намерения.
func StatusMessage(intent entity.PurchaseIntent) string {
	if intent.State == entity.PurchaseStateConfirmed {
		return buyerConfirmedText(intent)
	}
	return pendingText(intent)
}

// SendReminder срабатывает по таймеру. Подтверждённые и забытые намерения пропускаются.
func (s *Service) SendReminder(ctx context.Context, intent entity.PurchaseIntent) error {
	current, ok := s.intents.Get(intent.BuyerID, intent.OfferID)
	if !ok || current.State == entity.PurchaseStateConfirmed {
		logger(ctx).Debug("reminder skipped", logx.FieldBuyerID, intent.BuyerID, logx.FieldOfferID, intent.OfferID)
		return nil
	}

	if err := s.messenger.SendText(ctx, intent.BuyerID, reminderText(), s.helpButtons()); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	logger(ctx).Info("reminder sent", logx.FieldBuyerID, intent.BuyerID, logx.FieldOfferID, intent.OfferID)
	return nil
}

// ForwardReceipt пересылает квитанцию перевода всем операторам.
func (s *Service) ForwardReceipt(ctx context.Context, receipt entity.Receipt) error {
	caption := receiptCaption(receipt)
	if attemptID, ok := s.intents.LatestBankAttempt(receipt.BuyerID); ok {
		caption += fmt.Sprintf("\nIntento: <code>%s</code>\nConfirmar: /confirm %s", attemptID, attemptID)
	}

	var errs []error
	for _, op := range s.operators {
		if err := s.messenger.SendReceipt(ctx, op, receipt, caption); err != nil {
			logger(ctx).Warn("forward receipt", logx.FieldChatID, op, logx.Error(err))
			errs = append(errs, err)
		}
	}

	if err := s.messenger.SendText(ctx, receipt.BuyerID, receiptAckText(), nil); err != nil {
		errs = append(errs, fmt.Errorf("ack receipt: %w", err))
	}

	return errors.Join(errs...)
}

func (s *Service) helpButtons() [][]entity.Button {
	return [][]entity.Button{{{Text: "❓ Ayuda", URL: s.links.Help()}}}
}
