package listing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/errcodes"
)

const (
	DefaultAccountOffset int64 = 15000
	DefaultPackOffset    int64 = 20000

	intlSurcharge int64 = 25
	// maxLinkedConsoles: при таком числе привязанных консолей аккаунт не перепродаётся.
	maxLinkedConsoles = 2
)

// Поля, о которых сообщает ErrMissingField.
const (
	FieldNickname = "nickname"
	FieldCode     = "code"
	FieldItems    = "items"
	FieldPrice    = "price"
)

const (
	markerNickname    = "Nickname"
	markerTransaction = "Transaction"
	markerPrice       = "====PRICE"
	markerListStart   = "List Game"
	markerListEnd     = "End Game List"
)

var (
	ErrMissingField   = domain.NewError(errcodes.ListingMissingField, "listing is missing a required field")
	ErrPolicyRejected = domain.NewError(errcodes.ListingPolicyRejected, "account has too many linked consoles")
)

var (
	linkedConsolesRe = regexp.MustCompile(`Linked Consoles\s*:\s*(\d+)`)
	accountPriceRe   = regexp.MustCompile(`PRICE\s*(\d+)`)
	packPriceRe      = regexp.MustCompile(`Price\s*:\s*(\d+)`)
)

// Shape: результат определения формы объявления.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeAccount
	ShapePack
)

func (s Shape) String() string {
	switch s {
	case ShapeAccount:
		return "account"
	case ShapePack:
		return "pack"
	default:
		return "unrecognized"
	}
}

// Detect определяет форму текста: строка с "Nickname" означает аккаунт,
// иначе строка с "List Game" означает пак, иначе текст не распознан.
func Detect(lines []string) Shape {
	hasList := false
	for _, line := range lines {
		if strings.Contains(line, markerNickname) {
			return ShapeAccount
		}
		if strings.Contains(line, markerListStart) {
			hasList = true
		}
	}
	if hasList {
		return ShapePack
	}
	return ShapeUnrecognized
}

// Offsets: надбавка K в местной валюте для каждого вида объявления.
type Offsets struct {
	Account int64
	Pack    int64
}

func (o Offsets) For(kind entity.OfferKind) int64 {
	if kind == entity.OfferKindAccount {
		return o.Account
	}
	return o.Pack
}

// Parser превращает текст оператора в entity.Offer. Parser не имеет состояния,
// кроме конфигурации, и безопасен для конкурентного использования.
type Parser struct {
	offsets Offsets
	contact string
	now     func() time.Time
}

func NewParser(offsets Offsets, contact string) *Parser {
	return &Parser{
		offsets: offsets,
		contact: contact,
		now:     time.Now,
	}
}

func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse разбирает текст и возвращает объявление без ID.
// ID присваивает IDGenerator.
func (p *Parser) Parse(raw string) (entity.Offer, error) {
	lines := splitLines(raw)

	if n, ok := linkedConsoles(lines); ok && n >= maxLinkedConsoles {
		return entity.Offer{}, ErrPolicyRejected.WithCount(n)
	}

	var (
		offer entity.Offer
		err   error
	)
	switch Detect(lines) {
	case ShapeAccount:
		offer, err = parseAccount(lines)
	case ShapePack:
		offer, err = parsePack(lines)
	default:
		return entity.Offer{}, ErrMissingField.WithField(FieldItems)
	}
	if err != nil {
		return entity.Offer{}, err
	}

	offer.PriceLocal = offer.PriceUSD*1000 + p.offsets.For(offer.Kind)
	offer.PriceIntl = offer.PriceUSD + intlSurcharge
	offer.AvailabilityNote = availability(offer.Kind)
	offer.CreatedAt = p.now()
	offer.RenderedText = Render(offer, p.contact)

	return offer, nil
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}

// linkedConsoles возвращает число из первой строки вида "Linked Consoles: N".
func linkedConsoles(lines []string) (int, bool) {
	for _, line := range lines {
		m := linkedConsolesRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Число не влезло в int: консолей заведомо больше порога.
			return maxLinkedConsoles, true
		}
		return n, true
	}
	return 0, false
}

func parseAccount(lines []string) (entity.Offer, error) {
	offer := entity.Offer{Kind: entity.OfferKindAccount}

	collecting := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, markerNickname):
			if offer.Nickname == "" {
				if _, value, ok := strings.Cut(line, ":"); ok {
					offer.Nickname = strings.TrimSpace(value)
				}
			}
		case strings.Contains(line, markerTransaction):
			collecting = true
		case strings.Contains(line, markerPrice):
			if m := accountPriceRe.FindStringSubmatch(line); m != nil {
				offer.PriceUSD = parsePrice(m[1])
			}
			collecting = false
		case collecting:
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "=") {
				continue
			}
			left, _, _ := strings.Cut(trimmed, "-")
			if item := strings.TrimSpace(left); item != "" {
				offer.Items = append(offer.Items, item)
			}
		}
	}

	switch {
	case offer.Nickname == "":
		return entity.Offer{}, ErrMissingField.WithField(FieldNickname)
	case len(offer.Items) == 0:
		return entity.Offer{}, ErrMissingField.WithField(FieldItems)
	case offer.PriceUSD <= 0:
		return entity.Offer{}, ErrMissingField.WithField(FieldPrice)
	}
	return offer, nil
}

func parsePack(lines []string) (entity.Offer, error) {
	offer := entity.Offer{Kind: entity.OfferKindPack}

	if len(lines) > 0 {
		offer.Code = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), "#"))
	}

	inList, priceSeen := false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(line, markerListEnd):
			inList = false
		case strings.Contains(line, markerListStart):
			inList = true
		case inList && trimmed != "":
			offer.Items = append(offer.Items, trimmed)
		}
		if !priceSeen {
			if m := packPriceRe.FindStringSubmatch(line); m != nil {
				offer.PriceUSD = parsePrice(m[1])
				priceSeen = true
			}
		}
	}

	switch {
	case offer.Code == "":
		return entity.Offer{}, ErrMissingField.WithField(FieldCode)
	case len(offer.Items) == 0:
		return entity.Offer{}, ErrMissingField.WithField(FieldItems)
	case offer.PriceUSD <= 0:
		return entity.Offer{}, ErrMissingField.WithField(FieldPrice)
	}
	return offer, nil
}

// parsePrice возвращает 0 для значений больше maxPriceUSD, чтобы
// price_usd*1000 + K гарантированно помещалось в int64.
func parsePrice(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v > maxPriceUSD {
		return 0
	}
	return v
}

const maxPriceUSD = 1_000_000

func availability(kind entity.OfferKind) string {
	if kind == entity.OfferKindAccount {
		return "Disponible las 24 horas"
	}
	return "Disponible de 12:00 a 19:00 hrs"
}
