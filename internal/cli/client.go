package cli

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// HealthResponse — состояние сервиса по /healthz.
type HealthResponse struct {
	Service string `json:"service"`
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

// Client — HTTP-клиент для служебных endpoint'ов сервисов.
type Client struct {
	httpClient *http.Client
}

// NewClient создаёт клиент с таймаутом запроса.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Health запрашивает baseURL/healthz. Ошибка сети — нездоровый сервис.
func (c *Client) Health(service, baseURL string) HealthResponse {
	res := HealthResponse{Service: service, URL: baseURL}

	resp, err := c.httpClient.Get(strings.TrimRight(baseURL, "/") + "/healthz")
	if err != nil {
		res.Message = err.Error()
		return res
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	res.Status = resp.StatusCode
	res.Healthy = resp.StatusCode == http.StatusOK
	res.Message = strings.TrimSpace(string(body))
	return res
}
