package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Harvester/internal/mq"
)

// RouteResponse — пара очередей источника.
type RouteResponse struct {
	Source  string `json:"source"`
	Scraper string `json:"scraper"`
	Store   string `json:"store"`
}

// NewTopologyCmd создаёт команду вывода топологии очередей.
func NewTopologyCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Show RabbitMQ queue pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			routes := make([]RouteResponse, len(mq.Routes))
			rows := make([][]string, len(mq.Routes))
			for i, r := range mq.Routes {
				routes[i] = RouteResponse{Source: r.Source, Scraper: string(r.Scraper), Store: string(r.Store)}
				rows[i] = []string{r.Source, string(r.Scraper), string(r.Store)}
			}

			out.Print([]string{"SOURCE", "SCRAPER_QUEUE", "STORE_QUEUE"}, rows, routes)
			return nil
		},
	}
}
