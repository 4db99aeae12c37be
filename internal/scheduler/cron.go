package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей и дескрипторы @daily, @every 1h).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRun вычисляет следующее время срабатывания после from в часовом поясе loc.
func NextRun(spec string, from time.Time, loc *time.Location) (time.Time, error) {
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return schedule.Next(from.In(loc)), nil
}

// ValidateSpec проверяет валидность cron-выражения.
func ValidateSpec(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSpec, spec, err)
	}
	return nil
}
