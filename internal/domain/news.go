package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// NewsArticle — текст статьи The News за дату.
type NewsArticle struct {
	Date    string `json:"date"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
}

// TheNewsURL строит URL архива The News за дату.
func TheNewsURL(baseURL, date string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("cannot build the news url: %w", ErrMissingBaseURL)
	}

	dmy, err := DayMonthYear(date)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("q", dmy)

	return strings.TrimRight(baseURL, "/") + "/archive?" + params.Encode(), nil
}
