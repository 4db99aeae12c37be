package worker

import "errors"

// Ошибки воркера.
var (
	// ErrNoData — страница не содержит данных.
	ErrNoData = errors.New("no data found")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
