package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/shaiso/Harvester/internal/domain"
)

const theNewsContentSelector = "#content-blocks"

// theNewsLinksJS — ссылки карточек архива вместе с origin страницы.
const theNewsLinksJS = `({
	origin: location.origin,
	links: Array.from(document.querySelectorAll('div.grid div a[data-discover="true"]')).map(a => a.href)
})`

// theNewsContentJS — текст div-блоков статьи.
const theNewsContentJS = `Array.from(document.getElementById('content-blocks').children)
	.filter(el => el.tagName === 'DIV')
	.map(el => el.textContent)`

type theNewsLinks struct {
	Origin string   `json:"origin"`
	Links  []string `json:"links"`
}

// TheNewsExecutor собирает статью архива The News за дату запроса.
//
// Архив может содержать несколько статей; обходятся все, результатом
// остаётся последняя.
type TheNewsExecutor struct {
	Browser Browser
	BaseURL string
}

// Execute возвращает domain.NewsArticle.
func (e *TheNewsExecutor) Execute(ctx context.Context, req domain.ScrapeRequest) (any, error) {
	target, err := domain.TheNewsURL(e.BaseURL, req.FromDate)
	if err != nil {
		return nil, err
	}

	var article *domain.NewsArticle
	err = e.Browser.Do(ctx, func(tab context.Context) error {
		var archive theNewsLinks
		if err := chromedp.Run(tab,
			chromedp.Navigate(target),
			chromedp.Evaluate(theNewsLinksJS, &archive),
		); err != nil {
			return err
		}

		for _, link := range articleLinks(archive.Origin, archive.Links) {
			var blocks []string
			if err := chromedp.Run(tab,
				chromedp.Navigate(link),
				chromedp.WaitReady(theNewsContentSelector, chromedp.ByQuery),
				chromedp.Evaluate(theNewsContentJS, &blocks),
			); err != nil {
				return fmt.Errorf("article %s: %w", link, err)
			}

			article = &domain.NewsArticle{
				Date:    req.FromDate,
				URL:     link,
				Content: joinBlocks(blocks),
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape the news at %s: %w", req.FromDate, err)
	}

	if article == nil {
		return nil, fmt.Errorf("the news at %s: %w", req.FromDate, ErrNoData)
	}
	return *article, nil
}

// articleLinks оставляет уникальные ссылки на статьи (origin/p/...) в порядке появления.
func articleLinks(origin string, links []string) []string {
	prefix := strings.TrimRight(origin, "/") + "/p/"
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if !strings.HasPrefix(link, prefix) {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// joinBlocks соединяет непустые блоки через перевод строки.
func joinBlocks(blocks []string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n")
}
