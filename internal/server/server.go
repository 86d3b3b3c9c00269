package server

// Server объединяет HTTP-обработчики по сущностям. Сейчас это только
// приём подтверждений оплаты от шлюзов и ссылки возврата.
type Server struct {
	PaymentServer
}

func NewServer(
	paymentServer PaymentServer,
) Server {
	return Server{
		PaymentServer: paymentServer,
	}
}
