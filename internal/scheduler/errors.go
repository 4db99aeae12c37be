package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrInvalidSpec — некорректное cron-выражение.
	ErrInvalidSpec = errors.New("invalid cron expression")

	// ErrNoJobs — расписание пустое.
	ErrNoJobs = errors.New("no jobs configured")
)
