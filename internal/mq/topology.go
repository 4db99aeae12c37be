package mq

import (
	"fmt"
	"strings"
)

// Queue — тип для имени очереди.
type Queue string

// Очереди. Каждый источник данных — пара <source>_scraper → <source>_store.
const (
	QueuePtaxScraper Queue = "ptax_data_scraper"
	QueuePtaxStore   Queue = "ptax_data_store"

	QueueCmeScraper Queue = "cme_data_scraper"
	QueueCmeStore   Queue = "cme_data_store"

	QueueTheNewsScraper Queue = "the_news_data_scraper"
	QueueTheNewsStore   Queue = "the_news_article_store"

	// QueueTheNewsArticleGeneration потребляется вне этого репозитория.
	QueueTheNewsArticleGeneration Queue = "the_news_article_generation"
)

// Route — пара очередей источника: scraper → store.
type Route struct {
	Source  string
	Scraper Queue
	Store   Queue
}

// Routes — все маршруты системы.
var Routes = []Route{
	{Source: "ptax", Scraper: QueuePtaxScraper, Store: QueuePtaxStore},
	{Source: "cme", Scraper: QueueCmeScraper, Store: QueueCmeStore},
	{Source: "the_news", Scraper: QueueTheNewsScraper, Store: QueueTheNewsStore},
}

// Queues возвращает все известные очереди.
func Queues() []Queue {
	queues := make([]Queue, 0, len(Routes)*2+1)
	for _, r := range Routes {
		queues = append(queues, r.Scraper, r.Store)
	}
	return append(queues, QueueTheNewsArticleGeneration)
}

// RouteFor возвращает маршрут источника.
func RouteFor(source string) (Route, error) {
	for _, r := range Routes {
		if r.Source == source {
			return r, nil
		}
	}
	return Route{}, fmt.Errorf("unknown source %q", source)
}

// TopologyInfo возвращает описание топологии для логирования и CLI.
func TopologyInfo() string {
	var b strings.Builder
	b.WriteString("Harvester RabbitMQ Topology (default exchange, durable queues):\n")
	for _, r := range Routes {
		fmt.Fprintf(&b, "  %-9s %s → %s\n", r.Source, r.Scraper, r.Store)
	}
	fmt.Fprintf(&b, "  %-9s %s (external consumer)\n", "", QueueTheNewsArticleGeneration)
	return b.String()
}
