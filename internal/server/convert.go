package server

import (
	"tg_listing/internal/domain/service/purchase"
	"tg_listing/pkg/rest"
)

func newRESTWebhookAck(result purchase.ConfirmResult, received bool) rest.WebhookAck {
	return rest.WebhookAck{
		Received:  received,
		Duplicate: result.Duplicate,
		AttemptID: result.Intent.AttemptID,
	}
}
