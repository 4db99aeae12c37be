package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	// MessagesPublished — опубликованные сообщения (включая повторные публикации retry).
	MessagesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_messages_published_total",
			Help: "Total number of messages published to the broker.",
		},
		[]string{"queue"},
	)

	// MessagesReceived — полученные доставки.
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_messages_received_total",
			Help: "Total number of deliveries received from the broker.",
		},
		[]string{"queue"},
	)

	MessagesRetried = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_messages_retried_total",
			Help: "Total number of failed deliveries re-published for retry.",
		},
		[]string{"queue"},
	)

	MessagesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_messages_discarded_total",
			Help: "Total number of deliveries discarded after exhausting retries.",
		},
		[]string{"queue"},
	)

	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvester_handler_duration_seconds",
			Help:    "Consumer handler latency by queue and outcome.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"queue", "outcome"},
	)

	// ConnectFailures — неудачные попытки подключения к брокеру.
	ConnectFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_broker_connect_failures_total",
			Help: "Total number of failed broker connection attempts.",
		},
	)

	// BrokerConnected — 1 если соединение установлено.
	BrokerConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvester_broker_connected",
			Help: "Whether the broker connection is established (1) or not (0).",
		},
	)

	SerializerPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "harvester_serializer_pending_tasks",
			Help: "Number of tasks waiting in the task serializer.",
		},
	)

	ScrapeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harvester_scrape_duration_seconds",
			Help:    "Browser scrape latency by source and outcome.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source", "outcome"},
	)

	// RowsStored — записи, сохранённые store consumers.
	RowsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_rows_stored_total",
			Help: "Total number of rows persisted by store consumers.",
		},
		[]string{"table"},
	)

	ScheduledTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_scheduled_triggers_total",
			Help: "Total number of scrape requests published by the scheduler.",
		},
		[]string{"source", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesPublished,
		MessagesReceived,
		MessagesRetried,
		MessagesDiscarded,
		HandlerDuration,
		ConnectFailures,
		BrokerConnected,
		SerializerPending,
		ScrapeDuration,
		RowsStored,
		ScheduledTriggers,
	)
}

// Outcome возвращает метку результата для histogram.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
