package mq

import "errors"

var (
	// ErrNoChannel — соединение ещё не открыто или переподключается.
	ErrNoChannel = errors.New("amqp channel not available")

	// ErrClosed — соединение закрыто через Close.
	ErrClosed = errors.New("amqp connection closed")

	// ErrBadMessage — тело сообщения не является конвертом Message.
	ErrBadMessage = errors.New("malformed message")
)
