package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mymmrac/telego"
	"golang.org/x/sync/errgroup"

	"tg_listing/internal/config"
	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/internal/infrastructure/cache"
	"tg_listing/internal/infrastructure/notifier"
	"tg_listing/internal/infrastructure/payment"
	"tg_listing/internal/infrastructure/persistence"
	"tg_listing/internal/server"
	"tg_listing/internal/transport/bot"
	"tg_listing/internal/transport/bot/handler"
	"tg_listing/internal/worker"
	"tg_listing/internal/worker/reminder"
	"tg_listing/pkg/application/connectors"
	"tg_listing/pkg/application/modules"
	"tg_listing/pkg/contextx"
	"tg_listing/pkg/httpx"
	"tg_listing/pkg/logx"
)

const (
	httpReadHeaderTimeout = 5 * time.Second
	gatewayTimeout        = 15 * time.Second
)

type journal interface {
	purchase.Journal
	worker.DeadLetterSink
}

// Run собирает все компоненты и блокируется до отмены контекста.
func Run(ctx context.Context, cfg config.Config) error {
	log := contextx.LoggerFromContextOrDefault(ctx)
	g, ctx := errgroup.WithContext(ctx)

	// Журнал
	var jr journal = persistence.NopJournal{}
	if cfg.Postgres.DSN != "" {
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		defer pg.Close(context.WithoutCancel(ctx))

		repo := persistence.NewJournalRepository(pg.Client(ctx))
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("journal schema: %w", err)
		}
		jr = repo
	} else {
		log.Info("PG_DSN is empty, purchase journal disabled")
	}

	// Telegram
	tg, err := telego.NewBot(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("telego.NewBot: %w", err)
	}
	tgNotifier := notifier.NewTelegramBot(tg).WithOperators(cfg.Bot.AdminIDs...)

	// Объявления и очередь публикации
	links := listing.Links{BotUsername: cfg.Bot.Username}
	offers := cache.NewOfferCache()
	queue := worker.NewDeliveryQueue()

	listings := listing.NewService(
		listing.NewParser(listing.Offsets{
			Account: cfg.Listing.AccountOffset,
			Pack:    cfg.Listing.PackOffset,
		}, cfg.Listing.Contact),
		listing.NewIDGenerator(),
		offers,
		queue,
		links,
		cfg.Bot.ChannelID,
	)

	delivery := worker.NewDeliveryWorker(queue, tgNotifier).
		WithPacing(cfg.Delivery.Pacing).
		WithBackoff(cfg.Delivery.Backoff).
		WithMaxAttempts(cfg.Delivery.MaxAttempts).
		WithDeadLetterSinks(tgNotifier, jr)

	// Напоминания
	sched, reminders, err := newScheduler(ctx, g, cfg)
	if err != nil {
		return err
	}

	// Покупки
	purchases := purchase.NewService(
		offers,
		purchase.NewIntentStore(purchase.DefaultIntentTTL),
		tgNotifier,
		sched,
		links,
	).
		WithOperators(cfg.Bot.AdminIDs...).
		WithLocalCurrency(cfg.Payments.LocalCurrency).
		WithReminderDelay(cfg.Reminder.Delay).
		WithJournal(jr)

	if cfg.Payments.ReturnSecret != "" {
		purchases.WithReturnLinks(
			cfg.Payments.PublicBaseURL,
			purchase.NewTokens(cfg.Payments.ReturnSecret, cfg.Payments.ReturnTTL),
		)
	}

	masker := logx.NewSensitiveDataMasker()

	var localVerifier, intlVerifier server.ProofVerifier
	if cfg.Payments.LocalRail() {
		client := &http.Client{
			Timeout: gatewayTimeout,
			Transport: httpx.NewAuthBearerRoundTripper(
				httpx.NewLoggingRoundTripper(
					http.DefaultTransport,
					httpx.WithSensitiveDataMasker(masker),
					httpx.WithLogFieldMaxLen(cfg.HTTP.LogFieldMaxLen),
				),
				payment.StaticKey(cfg.Payments.Local.APIKey),
			),
		}
		purchases.WithGateway(
			entity.RailLocal,
			payment.NewLocalGateway(cfg.Payments.Local.URL, client),
			cfg.Payments.Local.FallbackURL,
		)
		localVerifier = payment.NewLocalWebhook(cfg.Payments.Local.WebhookSecret)
	}
	if cfg.Payments.IntlRail() {
		client := &http.Client{
			Timeout: gatewayTimeout,
			Transport: httpx.NewLoggingRoundTripper(
				http.DefaultTransport,
				httpx.WithSensitiveDataMasker(masker),
				httpx.WithLogFieldMaxLen(cfg.HTTP.LogFieldMaxLen),
			),
		}
		purchases.WithGateway(
			entity.RailIntl,
			payment.NewStripeGateway(cfg.Payments.Stripe.SecretKey, cfg.Payments.Stripe.APIURL, client),
			cfg.Payments.Stripe.FallbackURL,
		)
		if cfg.Payments.Stripe.WebhookSecret != "" {
			intlVerifier = payment.NewStripeWebhook(cfg.Payments.Stripe.WebhookSecret)
		}
	}
	if cfg.Payments.BankRail() {
		purchases.WithBankTransfer(cfg.Payments.BankDetails)
	}

	reminders(purchases.SendReminder)

	log.Info("payment rails configured", "rails", purchases.Rails())

	// HTTP
	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr: cfg.HTTP.Address,
		Handler: server.NewRouter(
			server.NewServer(server.NewPaymentServer(purchases, localVerifier, intlVerifier, links)),
			masker,
			cfg.HTTP.LogFieldMaxLen,
		),
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}
	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, httpServer)

	if cfg.HTTP.ProbeAddress != "" {
		modules.ProbeServer{
			Name:          cfg.App.Name,
			Version:       cfg.App.Version,
			ListenAddress: cfg.HTTP.ProbeAddress,
		}.Run(ctx, g)
	}
	if cfg.HTTP.MetricsAddress != "" {
		modules.MetricServer{ListenAddress: cfg.HTTP.MetricsAddress}.Run(ctx, g)
	}

	// Доставка
	if err := delivery.Start(ctx); err != nil {
		return fmt.Errorf("delivery.Start: %w", err)
	}
	defer delivery.Stop()

	// Бот
	h := handler.New(listings, purchases, tgNotifier, delivery)
	g.Go(func() error {
		return bot.New(tg, h, cfg.Bot.AdminIDs).Run(ctx)
	})

	log.Info("application started", slog.String("channel", cfg.Bot.ChannelID))

	if err := g.Wait(); err != nil {
		return fmt.Errorf("application: %w", err)
	}

	return nil
}

// newScheduler возвращает планировщик напоминаний и функцию, которая
// подключает к нему обработчик после сборки сервиса покупок.
func newScheduler(ctx context.Context, g *errgroup.Group, cfg config.Config) (purchase.Scheduler, func(reminder.Handler), error) {
	switch cfg.Reminder.Backend {
	case config.ReminderBackendAsynq:
		rdb := &connectors.Redis{
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		client := rdb.Client(ctx)
		g.Go(func() error {
			<-ctx.Done()
			rdb.Close(context.WithoutCancel(ctx))
			return nil
		})

		sched := reminder.NewAsynqScheduler(
			asynq.NewClientFromRedisClient(client),
			asynq.NewInspectorFromRedisClient(client),
		)

		return sched, func(h reminder.Handler) {
			sched.WithHandler(h)
			modules.AsynqServer{
				RedisUsername: cfg.Redis.Username,
				RedisPassword: cfg.Redis.Password,
				RedisAddress:  cfg.Redis.Address,
				RedisDB:       cfg.Redis.DatabaseNumber,
			}.Run(ctx, g, modules.AsynqQueues{reminder.Queue: 1}, modules.AsynqHandler{
				Pattern: reminder.TaskType,
				Handle:  sched.ProcessTask,
			})
		}, nil
	case config.ReminderBackendMemory:
		sched := reminder.NewMemoryScheduler()
		g.Go(func() error {
			<-ctx.Done()
			sched.Stop()
			return nil
		})

		return sched, func(h reminder.Handler) {
			sched.WithHandler(h)
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown reminder backend %q", cfg.Reminder.Backend)
	}
}
