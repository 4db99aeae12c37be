package worker

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/shaiso/Harvester/internal/domain"
)

const (
	ptaxRowsSelector = "table.tabela tbody tr"

	// ptaxMinColumns — строки с меньшим числом колонок служебные.
	ptaxMinColumns = 6
)

// ptaxRowsJS возвращает текст ячеек каждой строки таблицы.
const ptaxRowsJS = `Array.from(document.querySelectorAll('table.tabela tbody tr'))
	.map(row => Array.from(row.querySelectorAll('td')).map(td => td.innerText.trim()))`

// PtaxExecutor собирает бюллетень курса доллара PTAX за дату запроса.
type PtaxExecutor struct {
	Browser Browser
	BaseURL string
}

// Execute возвращает []domain.PtaxRate.
func (e *PtaxExecutor) Execute(ctx context.Context, req domain.ScrapeRequest) (any, error) {
	target, err := domain.PtaxURL(e.BaseURL, req.FromDate)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	err = e.Browser.Do(ctx, func(tab context.Context) error {
		return chromedp.Run(tab,
			chromedp.Navigate(target),
			chromedp.WaitVisible(ptaxRowsSelector, chromedp.ByQuery),
			chromedp.Evaluate(ptaxRowsJS, &rows),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("scrape ptax at %s: %w", req.FromDate, err)
	}

	rates := parsePtaxRows(rows, req.FromDate)
	if len(rates) == 0 {
		return nil, fmt.Errorf("ptax at %s: %w", req.FromDate, ErrNoData)
	}
	return rates, nil
}

// parsePtaxRows переводит строки таблицы в курсы, проставляя дату запроса.
func parsePtaxRows(rows [][]string, date string) []domain.PtaxRate {
	rates := make([]domain.PtaxRate, 0, len(rows))
	for _, cols := range rows {
		if len(cols) < ptaxMinColumns {
			continue
		}
		rates = append(rates, domain.PtaxRate{
			Time:     cols[0],
			Type:     cols[1],
			BuyRate:  cols[2],
			SellRate: cols[3],
			Date:     date,
		})
	}
	return rates
}
