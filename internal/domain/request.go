package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dateRegex — допустимые форматы даты: 2025-08-19, 2025-08-19T20:42:44,
// 2025-08-19T20:42:44.651Z.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d{3}Z)?)?$`)

// ScrapeRequest — payload сообщений в очередях *_scraper.
type ScrapeRequest struct {
	// FromDate — дата, за которую собираются данные. Для cme не используется.
	FromDate string `json:"fromDate,omitempty"`
}

// NewScrapeRequest создаёт запрос на дату t (только дата, без времени).
func NewScrapeRequest(t time.Time) ScrapeRequest {
	return ScrapeRequest{FromDate: t.Format(time.DateOnly)}
}

// DecodeScrapeRequest разбирает payload сообщения.
// Пустой payload допустим (запрос без даты).
func DecodeScrapeRequest(payload []byte) (ScrapeRequest, error) {
	var req ScrapeRequest
	if len(strings.TrimSpace(string(payload))) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("decode scrape request: %w", err)
	}
	return req, nil
}

// Validate проверяет запрос для источника.
func (r ScrapeRequest) Validate(source Source) error {
	if !source.RequiresDate() {
		return nil
	}
	if !dateRegex.MatchString(r.FromDate) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, r.FromDate)
	}
	return nil
}

// DayMonthYear переводит дату в формат dd/mm/yyyy.
// Используется только часть до 'T', без перевода часового пояса.
func DayMonthYear(date string) (string, error) {
	if !dateRegex.MatchString(date) {
		return "", fmt.Errorf("%w: %q (expect 2025-08-19T20:42:44.651Z or 2025-08-19)", ErrInvalidDate, date)
	}

	day := strings.SplitN(date, "T", 2)[0]
	parts := strings.Split(day, "-")
	return parts[2] + "/" + parts[1] + "/" + parts[0], nil
}
