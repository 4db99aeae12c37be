package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrEmptyBatch — нечего сохранять.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrMissingMessageID — запись без ID сообщения не может быть идемпотентной.
	ErrMissingMessageID = errors.New("missing message id")
)
