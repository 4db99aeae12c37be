package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Harvester/internal/telemetry"
)

// Publisher публикует сообщения в durable очереди через default exchange.
//
// Канал открывается лениво и переиспользуется; после ошибки публикации
// он закрывается и при следующем вызове открывается заново.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger

	mu sync.Mutex
	ch Channel
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: telemetry.WithComponent(telemetry.OrDefault(logger), "mq.publisher"),
	}
}

// Publish публикует payload в очередь queue и возвращает ID сообщения.
//
// Без соединения сразу возвращает ErrConnection, не обращаясь к сети.
// Подтверждения от брокера (publisher confirms) не ожидаются.
func (p *Publisher) Publish(ctx context.Context, queue Queue, payload any) (string, error) {
	if !p.conn.IsConnected() {
		return "", fmt.Errorf("cannot publish message to %s: %w", queue, ErrConnection)
	}

	body, err := encodeBody(payload)
	if err != nil {
		return "", err
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Queue:      queue,
		Payload:    body,
		Persistent: true,
	}

	if err := p.send(ctx, env); err != nil {
		return "", err
	}

	p.logger.Info("publishing new message",
		"event", "PUBLISH",
		"id", env.ID,
		"queue", queue,
	)

	return env.ID, nil
}

// Republish повторно публикует Envelope, сохраняя ID и RetryCount.
// Используется политикой retry в Registry.
func (p *Publisher) Republish(ctx context.Context, env Envelope) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("cannot republish message %s to %s: %w", env.ID, env.Queue, ErrConnection)
	}

	if err := p.send(ctx, env); err != nil {
		return err
	}

	p.logger.Info("republishing message",
		"event", "RETRY",
		"id", env.ID,
		"queue", env.Queue,
		"retries", fmt.Sprintf("%d/%d", env.RetryCount, MaxRetries),
	)

	return nil
}

// send объявляет очередь и отправляет сообщение.
func (p *Publisher) send(ctx context.Context, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, err := p.conn.Channel()
		if err != nil {
			return fmt.Errorf("publish to %s: %w", env.Queue, err)
		}
		p.ch = ch
	}

	if err := declareQueue(p.ch, env.Queue); err != nil {
		p.resetLocked()
		return fmt.Errorf("%w: declare queue %s: %w", ErrConnection, env.Queue, err)
	}

	err := p.ch.PublishWithContext(
		ctx,
		"",                // default exchange
		string(env.Queue), // routing key = имя очереди
		false,             // mandatory
		false,             // immediate
		env.Publishing(),
	)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish to %s: %w", env.Queue, err)
	}

	telemetry.MessagesPublished.WithLabelValues(string(env.Queue)).Inc()
	return nil
}

// Close закрывает канал публикации.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
}
