// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

// CreatePaymentRequest Запрос на создание платежа во внутреннем шлюзе
type CreatePaymentRequest struct {
	Reference string `json:"reference"`
	Subject   string `json:"subject"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

// CreatePaymentResponse Ответ шлюза с адресом оплаты
type CreatePaymentResponse struct {
	ID         string `json:"id"`
	PaymentURL string `json:"payment_url" validate:"required,url"`
}

// PaymentEvent Уведомление внутреннего шлюза о смене статуса платежа
type PaymentEvent struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Reference string `json:"reference" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=pending paid failed expired"`
	Amount    int64  `json:"amount" validate:"gte=0"`
}

// WebhookAck Ответ на уведомление шлюза
type WebhookAck struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	AttemptID string `json:"attemptId,omitempty"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`

	// SupportID Идентификатор запроса для поддержки
	SupportID string `json:"supportId"`
}

// ErrorCode Код ошибки
type ErrorCode string
