package mq

import "errors"

// Ошибки брокера.
var (
	// ErrConnection — брокер недоступен (нет соединения или канал не открылся).
	ErrConnection = errors.New("broker connection unavailable")

	// ErrNotConnected — операция требует состояния Connected.
	ErrNotConnected = errors.New("not connected")

	// ErrInvalidListenParams — не указаны обязательные параметры Listen.
	ErrInvalidListenParams = errors.New("invalid listen params")

	// ErrHandlerPanic — обработчик сообщения запаниковал.
	ErrHandlerPanic = errors.New("handler panic")
)
