package browser

import "errors"

// Ошибки пула.
var (
	// ErrPoolClosed — пул закрыт.
	ErrPoolClosed = errors.New("browser pool closed")

	// ErrLaunch — не удалось запустить браузер.
	ErrLaunch = errors.New("browser launch failed")
)
