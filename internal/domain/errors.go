package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrInvalidDate — дата не в формате YYYY-MM-DD или YYYY-MM-DDTHH:MM:SS(.sssZ).
	ErrInvalidDate = errors.New("invalid date format")

	// ErrUnknownSource — неизвестный источник данных.
	ErrUnknownSource = errors.New("unknown source")

	// ErrMissingBaseURL — не задан базовый URL источника.
	ErrMissingBaseURL = errors.New("missing base url")
)
