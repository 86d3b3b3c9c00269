package entity

import "time"

// Button описывает кнопку под сообщением (ссылка или callback).
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// DeliveryTask: единица исходящей работы для очереди публикации.
type DeliveryTask struct {
	ID         string
	ChatID     string
	Text       string
	Buttons    [][]Button
	Attempts   int
	LastError  string
	EnqueuedAt time.Time
}

// DeadLetter: задача, исчерпавшая попытки доставки.
type DeadLetter struct {
	Task     DeliveryTask
	FailedAt time.Time
}

type DeliveryStats struct {
	Pending      int
	Delivered    int64
	Retried      int64
	DeadLettered int64
}
