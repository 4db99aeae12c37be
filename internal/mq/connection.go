package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Harvester/internal/telemetry"
)

const defaultConnectRetryDelay = 5 * time.Second

// ConnectionState — состояние соединения с брокером.
//
//	Disconnected --попытка не удалась--> Disconnected
//	Disconnected --Connect--> Connected
//	Connected --Close/разрыв--> Disconnected
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ConnectionConfig — конфигурация Connection.
type ConnectionConfig struct {
	// URL — amqp URI брокера (обязательно).
	URL string

	// RetryDelay — пауза между попытками подключения (default: 5s).
	RetryDelay time.Duration

	// Logger (опционально).
	Logger *slog.Logger

	// Dial (опционально; по умолчанию DialAMQP).
	Dial DialFunc
}

// Connection владеет соединением с RabbitMQ.
//
// Особенности:
//   - Connect блокируется до успешного подключения, retry без ограничения попыток
//   - после успешного подключения автоматического reconnect нет: разрыв
//     переводит состояние в Disconnected и закрывает Dropped()
//   - Publisher и Registry работают только в состоянии Connected
type Connection struct {
	url        string
	retryDelay time.Duration
	dial       DialFunc
	logger     *slog.Logger

	mu      sync.RWMutex
	broker  Broker
	state   ConnectionState
	dropped chan struct{}
}

// NewConnection создаёт Connection в состоянии Disconnected.
func NewConnection(cfg ConnectionConfig) *Connection {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultConnectRetryDelay
	}

	dial := cfg.Dial
	if dial == nil {
		dial = DialAMQP
	}

	return &Connection{
		url:        cfg.URL,
		retryDelay: retryDelay,
		dial:       dial,
		logger:     telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "mq.connection"),
		dropped:    make(chan struct{}),
	}
}

// Connect устанавливает соединение. Возвращает nil только в состоянии
// Connected; ошибку — только при отмене ctx.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	for attempt := 1; ; attempt++ {
		c.logger.Info("establishing new connection", "attempt", attempt)

		broker, err := c.dial(c.url)
		if err == nil {
			c.onConnected(broker)
			return nil
		}

		telemetry.ConnectFailures.Inc()
		c.logger.Error("failed to establish a connection",
			"attempt", attempt,
			"retry_in", c.retryDelay,
			"error", err,
		)

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateDisconnected)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// onConnected фиксирует новое соединение и запускает наблюдение за разрывом.
func (c *Connection) onConnected(broker Broker) {
	c.mu.Lock()
	c.broker = broker
	c.state = StateConnected
	dropped := make(chan struct{})
	c.dropped = dropped
	c.mu.Unlock()

	telemetry.BrokerConnected.Set(1)
	c.logger.Info("connection established")

	go c.watch(broker, dropped)
}

// watch ждёт закрытия соединения со стороны брокера.
func (c *Connection) watch(broker Broker, dropped chan struct{}) {
	amqpErr := <-broker.NotifyClose(make(chan *amqp.Error, 1))

	c.mu.Lock()
	if c.broker != broker {
		// Закрыто через Close
		c.mu.Unlock()
		return
	}
	c.broker = nil
	c.state = StateDisconnected
	close(dropped)
	c.mu.Unlock()

	telemetry.BrokerConnected.Set(0)
	c.logger.Error("broker connection lost, no reconnection is attempted", "error", amqpErr)
}

// Close закрывает соединение. Требует состояния Connected.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state != StateConnected || c.broker == nil {
		c.mu.Unlock()
		return fmt.Errorf("cannot close connection: %w", ErrNotConnected)
	}
	broker := c.broker
	c.broker = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	telemetry.BrokerConnected.Set(0)
	c.logger.Info("closing connection")

	if err := broker.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// Channel открывает новый AMQP канал.
func (c *Connection) Channel() (Channel, error) {
	c.mu.RLock()
	broker := c.broker
	state := c.state
	c.mu.RUnlock()

	if state != StateConnected || broker == nil {
		return nil, ErrConnection
	}

	ch, err := broker.Channel()
	if err != nil {
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnection, err)
	}
	return ch, nil
}

// State возвращает текущее состояние.
func (c *Connection) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected проверяет, установлено ли соединение.
func (c *Connection) IsConnected() bool {
	return c.State() == StateConnected
}

// Dropped возвращает канал, который закрывается при разрыве текущего
// соединения брокером. Канал относится к последнему Connect.
func (c *Connection) Dropped() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}

func (c *Connection) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
