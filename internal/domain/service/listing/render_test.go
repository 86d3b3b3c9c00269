package listing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
)

func TestRenderAccount(t *testing.T) {
	rq := require.New(t)

	offer := entity.Offer{
		Kind:             entity.OfferKindAccount,
		Nickname:         "Panda",
		Items:            []string{"Mario Kart"},
		PriceLocal:       35000,
		PriceIntl:        45,
		AvailabilityNote: "Disponible las 24 horas",
	}

	expected := "🏠 <b>CUENTA NINTENDO</b>\n" +
		"👤 <b>Nickname:</b> <code>Panda</code>\n\n" +
		"🎮 <b>JUEGOS INCLUIDOS</b>\n" +
		"━━━━━━━━━━━━━━\n" +
		"🎲 Mario Kart\n" +
		"━━━━━━━━━━━━━━\n\n" +
		"💰 <b>PRECIO:</b>\n" +
		"<b>35,000 CLP</b> 🇨🇱 <b>45.00 USD</b> 🇺🇸\n" +
		"⏰ <b>Disponible las 24 horas</b>\n" +
		"🐼 <b>CONTÁCTAME:</b> @NintendoChile2"

	rq.Equal(expected, listing.Render(offer, "@NintendoChile2"))
	rq.Equal(listing.Render(offer, "@NintendoChile2"), listing.Render(offer, "@NintendoChile2"))
}

func TestRenderEscapesUntrustedText(t *testing.T) {
	rq := require.New(t)

	offer := entity.Offer{
		Kind:  entity.OfferKindPack,
		Code:  "<b>1</b>",
		Items: []string{"Tom & Jerry <script>"},
	}

	out := listing.Render(offer, "@shop")
	rq.Contains(out, "PACK #&lt;b&gt;1&lt;/b&gt;")
	rq.Contains(out, "🎲 Tom &amp; Jerry &lt;script&gt;")
	rq.NotContains(out, "<script>")
}

func TestFormatThousands(t *testing.T) {
	testCases := []struct {
		in  int64
		out string
	}{
		{in: 0, out: "0"},
		{in: 999, out: "999"},
		{in: 1000, out: "1,000"},
		{in: 35000, out: "35,000"},
		{in: 1234567, out: "1,234,567"},
		{in: -20000, out: "-20,000"},
	}

	for _, tc := range testCases {
		t.Run(tc.out, func(t *testing.T) {
			require.Equal(t, tc.out, listing.FormatThousands(tc.in))
		})
	}
}
