package worker

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/shaiso/Harvester/internal/domain"
)

const cmeRowsSelector = ".main-table-wrapper table tbody tr"

const cmeRowsJS = `Array.from(document.querySelectorAll('.main-table-wrapper table tbody tr'))
	.map(row => Array.from(row.querySelectorAll('td')).map(td => td.innerText.trim()))`

// Колонки таблицы котировок.
const (
	cmeColLast    = 3
	cmeColChange  = 4
	cmeColHigh    = 7
	cmeColLow     = 8
	cmeColVolume  = 9
	cmeColUpdated = 10
)

// CmeExecutor собирает котировки фьючерсов CME. Дата запроса не используется.
type CmeExecutor struct {
	Browser Browser
	BaseURL string
}

// Execute возвращает domain.CmeQuote.
func (e *CmeExecutor) Execute(ctx context.Context, _ domain.ScrapeRequest) (any, error) {
	if e.BaseURL == "" {
		return nil, fmt.Errorf("cannot proceed cme data scrap: %w", domain.ErrMissingBaseURL)
	}

	var rows [][]string
	err := e.Browser.Do(ctx, func(tab context.Context) error {
		return chromedp.Run(tab,
			chromedp.Navigate(e.BaseURL),
			chromedp.WaitVisible(cmeRowsSelector, chromedp.ByQuery),
			chromedp.Evaluate(cmeRowsJS, &rows),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("scrape cme: %w", err)
	}

	quote, ok := firstCmeQuote(rows)
	if !ok {
		return nil, fmt.Errorf("cme: %w", ErrNoData)
	}
	return quote, nil
}

// firstCmeQuote возвращает первую строку, в которой заполнены все поля.
func firstCmeQuote(rows [][]string) (domain.CmeQuote, bool) {
	for _, cols := range rows {
		if len(cols) <= cmeColUpdated {
			continue
		}
		q := domain.CmeQuote{
			Last:    cols[cmeColLast],
			Change:  cols[cmeColChange],
			High:    cols[cmeColHigh],
			Low:     cols[cmeColLow],
			Volume:  cols[cmeColVolume],
			Updated: cols[cmeColUpdated],
		}
		if q.Complete() {
			return q, true
		}
	}
	return domain.CmeQuote{}, false
}
