package view_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tg_listing/internal/domain/entity"
	"tg_listing/internal/domain/service/listing"
	"tg_listing/internal/transport/bot/view"
)

func TestParseStart(t *testing.T) {
	testCases := []struct {
		text   string
		action view.StartAction
		arg    string
	}{
		{text: "/start", action: view.StartWelcome},
		{text: "/start buy_pack_1234_1700000000", action: view.StartBuy, arg: "pack_1234_1700000000"},
		{text: "/start@shop_bot buy_account_Panda_1", action: view.StartBuy, arg: "account_Panda_1"},
		{text: "/start buy_", action: view.StartWelcome},
		{text: "/start help", action: view.StartHelp},
		{text: "/start ayuda", action: view.StartHelp},
		{text: "/start paid_01HZX", action: view.StartPaid, arg: "01HZX"},
		{text: "/start something", action: view.StartWelcome},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			rq := require.New(t)

			action, arg := view.ParseStart(tc.text)
			rq.Equal(tc.action, action)
			rq.Equal(tc.arg, arg)
		})
	}
}

func TestParsePayCallback(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		rail    entity.Rail
		offerID string
		ok      bool
	}{
		{name: "Local", data: "pay:local:pack_1_1", rail: entity.RailLocal, offerID: "pack_1_1", ok: true},
		{name: "Bank", data: view.PayCallback(entity.RailBank, "account_A_1"), rail: entity.RailBank, offerID: "account_A_1", ok: true},
		{name: "Unknown rail", data: "pay:crypto:pack_1_1"},
		{name: "Missing offer", data: "pay:intl:"},
		{name: "Missing separator", data: "pay:intl"},
		{name: "Other prefix", data: "help"},
		{name: "Empty", data: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			r, offerID, ok := view.ParsePayCallback(tc.data)
			rq.Equal(tc.ok, ok)
			rq.Equal(tc.rail, r)
			rq.Equal(tc.offerID, offerID)
		})
	}
}

func TestCommandArg(t *testing.T) {
	rq := require.New(t)

	arg, ok := view.CommandArg("/confirm 01HZX")
	rq.True(ok)
	rq.Equal("01HZX", arg)

	_, ok = view.CommandArg("/confirm")
	rq.False(ok)
}

func TestRejection(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "Policy", err: listing.ErrPolicyRejected.WithCount(3), contains: "3 consolas"},
		{name: "Missing price", err: listing.ErrMissingField.WithField(listing.FieldPrice), contains: "falta Price"},
		{name: "Missing unknown field", err: listing.ErrMissingField, contains: "Formato correcto"},
		{name: "Unexpected", err: errors.New("boom"), contains: "No pudimos procesar"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Contains(t, view.Rejection(tc.err), tc.contains)
		})
	}
}

func TestRailKeyboard(t *testing.T) {
	rq := require.New(t)

	rows := view.RailKeyboard("pack_1_1", []entity.Rail{entity.RailLocal, entity.RailBank})
	rq.Len(rows, 3)
	rq.Equal("pay:local:pack_1_1", rows[0][0].CallbackData)
	rq.Equal("pay:bank:pack_1_1", rows[1][0].CallbackData)
	rq.Equal(view.CallbackHelp, rows[2][0].CallbackData)
}

func TestQueueStats(t *testing.T) {
	rq := require.New(t)

	text := view.QueueStats(entity.DeliveryStats{Pending: 2, Delivered: 5, Retried: 1, DeadLettered: 1},
		[]entity.DeadLetter{{Task: entity.DeliveryTask{ID: "t<1>", LastError: "flood"}}})
	rq.Contains(text, "Pendientes: 2")
	rq.Contains(text, "t&lt;1&gt;")
}
