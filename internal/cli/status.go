package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// Сервисы, проверяемые командой status, в порядке вывода.
var statusServices = []string{"worker", "store", "scheduler"}

// ServiceURLs — базовые адреса служебных endpoint'ов по имени сервиса.
type ServiceURLs map[string]string

// DefaultServiceURLs — адреса сервисов при локальном запуске.
func DefaultServiceURLs() ServiceURLs {
	return ServiceURLs{
		"worker":    "http://localhost:8082",
		"store":     "http://localhost:8083",
		"scheduler": "http://localhost:8081",
	}
}

// NewStatusCmd создаёт команду проверки /healthz сервисов.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output, defaults ServiceURLs) *cobra.Command {
	urls := make(map[string]*string, len(statusServices))

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check health of Harvester services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			statuses := make([]HealthResponse, 0, len(statusServices))
			rows := make([][]string, 0, len(statusServices))
			unhealthy := 0
			for _, name := range statusServices {
				url := *urls[name]
				if url == "" {
					continue
				}
				s := client.Health(name, url)
				if !s.Healthy {
					unhealthy++
				}
				statuses = append(statuses, s)
				rows = append(rows, []string{s.Service, s.URL, strconv.FormatBool(s.Healthy), s.Message})
			}

			out.Print([]string{"SERVICE", "URL", "HEALTHY", "MESSAGE"}, rows, statuses)
			if unhealthy > 0 {
				return fmt.Errorf("%d of %d services unhealthy", unhealthy, len(statuses))
			}
			return nil
		},
	}

	for _, name := range statusServices {
		urls[name] = cmd.Flags().String(name+"-url", defaults[name], "Base URL of harvester-"+name+" (empty to skip)")
	}

	return cmd
}
