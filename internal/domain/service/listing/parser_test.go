package listing_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/pkg/errcodes"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newParser() *listing.Parser {
	return listing.NewParser(listing.Offsets{
		Account: listing.DefaultAccountOffset,
		Pack:    listing.DefaultPackOffset,
	}, "@NintendoChile2").WithClock(func() time.Time { return fixedNow })
}

func TestParseAccount(t *testing.T) {
	rq := require.New(t)

	offer, err := newParser().Parse("Nickname: Panda\nTransaction\nMario Kart - used\n====PRICE 20")
	rq.NoError(err)

	rq.Equal(entity.OfferKindAccount, offer.Kind)
	rq.Equal("Panda", offer.Nickname)
	rq.Equal([]string{"Mario Kart"}, offer.Items)
	rq.EqualValues(20, offer.PriceUSD)
	rq.EqualValues(35000, offer.PriceLocal)
	rq.EqualValues(45, offer.PriceIntl)
	rq.Equal("Disponible las 24 horas", offer.AvailabilityNote)
	rq.Equal(fixedNow, offer.CreatedAt)
	rq.Empty(offer.ID)
}

func TestParsePack(t *testing.T) {
	rq := require.New(t)

	offer, err := newParser().Parse("#1234\nList Game\nMario\nZelda\nEnd Game List\nPrice: 20")
	rq.NoError(err)

	rq.Equal(entity.OfferKindPack, offer.Kind)
	rq.Equal("1234", offer.Code)
	rq.Equal([]string{"Mario", "Zelda"}, offer.Items)
	rq.EqualValues(20, offer.PriceUSD)
	rq.EqualValues(40000, offer.PriceLocal)
	rq.EqualValues(45, offer.PriceIntl)
	rq.Equal("Disponible de 12:00 a 19:00 hrs", offer.AvailabilityNote)
}

func TestParseAccountCollectsItemsInOrder(t *testing.T) {
	rq := require.New(t)

	raw := strings.Join([]string{
		"Nickname:   Luigi Bros  ",
		"Linked Consoles: 1",
		"Transaction",
		"Zelda - 2023-01-02",
		"",
		"=========",
		"Metroid Dread - 2022",
		" - orphan dash",
		"Pikmin 4",
		"====PRICE 15",
		"Ignored - after price",
	}, "\n")

	offer, err := newParser().Parse(raw)
	rq.NoError(err)
	rq.Equal("Luigi Bros", offer.Nickname)
	rq.Equal([]string{"Zelda", "Metroid Dread", "Pikmin 4"}, offer.Items)
	rq.EqualValues(15, offer.PriceUSD)

	for _, item := range offer.Items {
		rq.Equal(1, strings.Count(offer.RenderedText, "🎲 "+item+"\n"), item)
	}
	rq.Less(strings.Index(offer.RenderedText, "Zelda"), strings.Index(offer.RenderedText, "Metroid Dread"))
	rq.Less(strings.Index(offer.RenderedText, "Metroid Dread"), strings.Index(offer.RenderedText, "Pikmin 4"))
}

func TestParseLinkedConsolesRejected(t *testing.T) {
	testCases := []struct {
		name  string
		raw   string
		count int
	}{
		{
			name:  "Valid account",
			raw:   "Nickname: Panda\nLinked Consoles: 3\nTransaction\nMario Kart - used\n====PRICE 20",
			count: 3,
		},
		{
			name:  "Pack",
			raw:   "#77\nList Game\nMario\nEnd Game List\nPrice: 10\nLinked Consoles : 2",
			count: 2,
		},
		{
			name:  "Unrecognized text",
			raw:   "hello\nLinked Consoles:5",
			count: 5,
		},
		{
			name:  "First line wins",
			raw:   "Linked Consoles: 2\nLinked Consoles: 0\nNickname: A\nTransaction\nX\n====PRICE 1",
			count: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			_, err := newParser().Parse(tc.raw)
			rq.ErrorIs(err, listing.ErrPolicyRejected)
			rq.True(domain.HasCode(err, errcodes.ListingPolicyRejected))

			appErr, ok := domain.AsAppError(err)
			rq.True(ok)
			rq.Equal(tc.count, appErr.Count)
		})
	}
}

func TestParseLinkedConsolesAllowed(t *testing.T) {
	rq := require.New(t)

	offer, err := newParser().Parse("Nickname: Panda\nLinked Consoles: 1\nTransaction\nMario - x\n====PRICE 9")
	rq.NoError(err)
	rq.Equal("Panda", offer.Nickname)
}

func TestParseMissingField(t *testing.T) {
	testCases := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "Account empty nickname",
			raw:   "Nickname:\nTransaction\nMario - x\n====PRICE 20",
			field: listing.FieldNickname,
		},
		{
			name:  "Account nickname without colon",
			raw:   "Nickname Panda\nTransaction\nMario - x\n====PRICE 20",
			field: listing.FieldNickname,
		},
		{
			name:  "Account no items",
			raw:   "Nickname: Panda\nTransaction\n====PRICE 20",
			field: listing.FieldItems,
		},
		{
			name:  "Account no transaction section",
			raw:   "Nickname: Panda\nMario - x\n====PRICE 20",
			field: listing.FieldItems,
		},
		{
			name:  "Account no price marker",
			raw:   "Nickname: Panda\nTransaction\nMario - x",
			field: listing.FieldPrice,
		},
		{
			name:  "Account zero price",
			raw:   "Nickname: Panda\nTransaction\nMario - x\n====PRICE 0",
			field: listing.FieldPrice,
		},
		{
			name:  "Account unparsable price",
			raw:   "Nickname: Panda\nTransaction\nMario - x\n====PRICE twenty",
			field: listing.FieldPrice,
		},
		{
			name:  "Pack empty code",
			raw:   "#\nList Game\nMario\nEnd Game List\nPrice: 20",
			field: listing.FieldCode,
		},
		{
			name:  "Pack empty list",
			raw:   "#1\nList Game\n\n  \nEnd Game List\nPrice: 20",
			field: listing.FieldItems,
		},
		{
			name:  "Pack no price",
			raw:   "#1\nList Game\nMario\nEnd Game List",
			field: listing.FieldPrice,
		},
		{
			name:  "Pack zero first price ignores later price",
			raw:   "#9\nPrice: 0\nList Game\nMario\nEnd Game List\nPrice: 20",
			field: listing.FieldPrice,
		},
		{
			name:  "Pack price above cap",
			raw:   "#9\nList Game\nMario\nEnd Game List\nPrice: 2000000",
			field: listing.FieldPrice,
		},
		{
			name:  "Unrecognized",
			raw:   "just some words\nPrice: 10",
			field: listing.FieldItems,
		},
		{
			name:  "Empty input",
			raw:   "",
			field: listing.FieldItems,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			_, err := newParser().Parse(tc.raw)
			rq.ErrorIs(err, listing.ErrMissingField)
			rq.True(domain.HasCode(err, errcodes.ListingMissingField))

			appErr, ok := domain.AsAppError(err)
			rq.True(ok)
			rq.Equal(tc.field, appErr.Field)
		})
	}
}

func TestParsePackPriceFirstMatch(t *testing.T) {
	rq := require.New(t)

	offer, err := newParser().Parse("#9\nPrice: 12\nList Game\nMario\nEnd Game List\nPrice: 99")
	rq.NoError(err)
	rq.EqualValues(12, offer.PriceUSD)
}

func TestParseCustomOffsets(t *testing.T) {
	rq := require.New(t)

	p := listing.NewParser(listing.Offsets{Account: 1000, Pack: 2000}, "@shop")

	offer, err := p.Parse("#9\nList Game\nMario\nEnd Game List\nPrice: 3")
	rq.NoError(err)
	rq.EqualValues(5000, offer.PriceLocal)
}

func TestDetect(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		shape listing.Shape
	}{
		{name: "Nickname", lines: []string{"x", "Nickname: a"}, shape: listing.ShapeAccount},
		{name: "Nickname beats list", lines: []string{"List Game", "Nickname: a"}, shape: listing.ShapeAccount},
		{name: "List", lines: []string{"#1", "List Game"}, shape: listing.ShapePack},
		{name: "Nothing", lines: []string{"#1", "Mario"}, shape: listing.ShapeUnrecognized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.shape, listing.Detect(tc.lines))
		})
	}
}
