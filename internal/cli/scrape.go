package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Harvester/internal/domain"
	"github.com/shaiso/Harvester/internal/mq"
)

// Publisher публикует сообщение в очередь. Реализуется mq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, queue mq.Queue, payload any) (string, error)
}

// PublisherFunc подключается к брокеру и возвращает Publisher
// с функцией освобождения ресурсов.
type PublisherFunc func(ctx context.Context) (Publisher, func(), error)

// ScrapeResult — результат публикации запроса.
type ScrapeResult struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Queue    string `json:"queue"`
	FromDate string `json:"fromDate,omitempty"`
}

// NewScrapeCmd создаёт команду публикации запроса на сбор данных.
func NewScrapeCmd(publisherFn PublisherFunc, outputFn func() *Output, now func() time.Time) *cobra.Command {
	var date string
	var tz string

	cmd := &cobra.Command{
		Use:       "scrape SOURCE",
		Short:     "Publish a scrape request (ptax, cme, the_news)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.SourcePtax), string(domain.SourceCme), string(domain.SourceTheNews)},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			source, err := domain.ParseSource(args[0])
			if err != nil {
				return err
			}
			route, err := mq.RouteFor(string(source))
			if err != nil {
				return err
			}

			req := domain.ScrapeRequest{FromDate: date}
			if req.FromDate == "" && source.RequiresDate() {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return fmt.Errorf("invalid --tz: %w", err)
				}
				req = domain.NewScrapeRequest(now().In(loc))
			}
			if err := req.Validate(source); err != nil {
				return err
			}

			publisher, release, err := publisherFn(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			id, err := publisher.Publish(cmd.Context(), route.Scraper, req)
			if err != nil {
				return err
			}

			result := ScrapeResult{
				ID:       id,
				Source:   string(source),
				Queue:    string(route.Scraper),
				FromDate: req.FromDate,
			}
			out.Print(
				[]string{"ID", "SOURCE", "QUEUE", "FROM_DATE"},
				[][]string{{result.ID, result.Source, result.Queue, result.FromDate}},
				result,
			)
			out.Success(fmt.Sprintf("Scrape request published to %s", route.Scraper))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to scrape (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&tz, "tz", "America/Sao_Paulo", "Timezone for the default date")

	return cmd
}
