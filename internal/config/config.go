package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ReminderBackendMemory = "memory"
	ReminderBackendAsynq  = "asynq"
)

type Config struct {
	App      App
	Bot      Bot
	Listing  Listing
	Delivery Delivery
	Reminder Reminder
	Payments Payments
	HTTP     HTTP
	Postgres Postgres
	Redis    Redis
}

type App struct {
	Name     string `env:"APP_NAME" envDefault:"tg_listing"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type Bot struct {
	Token     string  `env:"BOT_TOKEN,required,notEmpty" json:"-"`
	Username  string  `env:"BOT_USERNAME,required,notEmpty"`
	ChannelID string  `env:"TELEGRAM_CHANNEL_ID,required,notEmpty"`
	AdminIDs  []int64 `env:"ADMIN_IDS,required,notEmpty" envSeparator:","`
}

type Listing struct {
	Contact       string `env:"STORE_CONTACT"`
	AccountOffset int64  `env:"PRICE_OFFSET_ACCOUNT" envDefault:"15000"`
	PackOffset    int64  `env:"PRICE_OFFSET_PACK" envDefault:"20000"`
}

type Delivery struct {
	Pacing      time.Duration `env:"DELIVERY_PACING" envDefault:"1500ms"`
	Backoff     time.Duration `env:"DELIVERY_BACKOFF" envDefault:"5s"`
	MaxAttempts int           `env:"DELIVERY_MAX_ATTEMPTS" envDefault:"10"`
}

type Reminder struct {
	Delay   time.Duration `env:"REMINDER_DELAY" envDefault:"30m"`
	Backend string        `env:"REMINDER_BACKEND" envDefault:"memory"`
}

type Payments struct {
	PublicBaseURL string        `env:"PUBLIC_BASE_URL"`
	ReturnSecret  string        `env:"PAYMENT_RETURN_SECRET" json:"-"`
	ReturnTTL     time.Duration `env:"PAYMENT_RETURN_TTL" envDefault:"24h"`
	LocalCurrency string        `env:"LOCAL_CURRENCY" envDefault:"CLP"`
	BankDetails   string        `env:"BANK_TRANSFER_DETAILS"`
	Local         LocalGateway
	Stripe        Stripe
}

type LocalGateway struct {
	URL           string `env:"LOCAL_GATEWAY_URL"`
	APIKey        string `env:"LOCAL_GATEWAY_API_KEY" json:"-"`
	WebhookSecret string `env:"LOCAL_GATEWAY_WEBHOOK_SECRET" json:"-"`
	FallbackURL   string `env:"LOCAL_GATEWAY_FALLBACK_URL"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY" json:"-"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" json:"-"`
	APIURL        string `env:"STRIPE_API_URL"`
	FallbackURL   string `env:"INTL_FALLBACK_URL"`
}

type HTTP struct {
	Address         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ProbeAddress    string        `env:"PROBE_ADDRESS"`
	MetricsAddress  string        `env:"METRICS_ADDRESS"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFieldMaxLen  int           `env:"LOG_FIELD_MAX_LEN" envDefault:"4096"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	config.Payments.BankDetails = correctNewlines(config.Payments.BankDetails)

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Validate: %w", err)
	}

	return config, nil
}

// Validate проверяет связи между переменными, которые env не выражает тегами.
func (c Config) Validate() error {
	var errs []error

	if len(c.Bot.AdminIDs) == 0 {
		errs = append(errs, errors.New("ADMIN_IDS must list at least one operator"))
	}
	if c.Listing.AccountOffset < 0 || c.Listing.PackOffset < 0 {
		errs = append(errs, errors.New("price offsets must not be negative"))
	}
	if c.Delivery.MaxAttempts < 0 {
		errs = append(errs, errors.New("DELIVERY_MAX_ATTEMPTS must not be negative"))
	}

	switch c.Reminder.Backend {
	case ReminderBackendMemory:
	case ReminderBackendAsynq:
		if c.Redis.Address == "" {
			errs = append(errs, errors.New("REDIS_ADDRESS is required for the asynq reminder backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown REMINDER_BACKEND %q", c.Reminder.Backend))
	}

	p := c.Payments
	if p.Local.URL != "" && p.Local.APIKey == "" {
		errs = append(errs, errors.New("LOCAL_GATEWAY_API_KEY is required with LOCAL_GATEWAY_URL"))
	}
	if p.Local.URL != "" && p.Local.WebhookSecret == "" {
		errs = append(errs, errors.New("LOCAL_GATEWAY_WEBHOOK_SECRET is required with LOCAL_GATEWAY_URL"))
	}
	if p.PublicBaseURL != "" && p.ReturnSecret == "" {
		errs = append(errs, errors.New("PAYMENT_RETURN_SECRET is required with PUBLIC_BASE_URL"))
	}
	if !p.LocalRail() && !p.IntlRail() && !p.BankRail() {
		errs = append(errs, errors.New("at least one payment rail must be configured"))
	}

	return errors.Join(errs...)
}

// LocalRail: настроен ли внутренний шлюз.
func (p Payments) LocalRail() bool {
	return p.Local.URL != ""
}

func (p Payments) IntlRail() bool {
	return p.Stripe.SecretKey != ""
}

func (p Payments) BankRail() bool {
	return strings.TrimSpace(p.BankDetails) != ""
}

func correctNewlines(s string) string {
	return strings.NewReplacer(`"`, "", `\n`, "\n").Replace(s)
}
