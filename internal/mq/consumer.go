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

const (
	defaultRetryBackoff = 30 * time.Second
	defaultPrefetch     = 1
)

// Message — доставленное сообщение, передаваемое обработчику.
type Message struct {
	ID         string
	Queue      Queue
	Payload    []byte
	RetryCount int
}

// Handler — функция обработки сообщения.
// Ошибка запускает политику retry/discard; наружу Listen она не выходит.
type Handler func(ctx context.Context, msg Message) error

// ListenParams — параметры подписки.
type ListenParams struct {
	// Queue — имя очереди (обязательно).
	Queue Queue

	// Handler — обработчик сообщений (обязательно).
	Handler Handler

	// Prefetch — максимум неподтверждённых доставок (default: 1).
	Prefetch int
}

// RegistryConfig — конфигурация Registry.
type RegistryConfig struct {
	// RetryBackoff — пауза перед повторной публикацией (default: 30s).
	RetryBackoff time.Duration

	Logger *slog.Logger
}

// Registry подписывает обработчики на очереди и применяет политику
// retry/discard к их ошибкам.
type Registry struct {
	conn         *Connection
	publisher    *Publisher
	retryBackoff time.Duration
	logger       *slog.Logger

	wg sync.WaitGroup
}

// NewRegistry создаёт новый Registry.
func NewRegistry(conn *Connection, publisher *Publisher, cfg RegistryConfig) *Registry {
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	return &Registry{
		conn:         conn,
		publisher:    publisher,
		retryBackoff: retryBackoff,
		logger:       telemetry.WithComponent(telemetry.OrDefault(cfg.Logger), "mq.registry"),
	}
}

// Listen подписывает обработчик на очередь.
//
// Синхронно: объявляет durable очередь, устанавливает prefetch и начинает
// потребление с ручным ack. Ошибки этих шагов возвращаются (ErrConnection).
// Дальше доставки обрабатываются в фоне до отмены ctx или закрытия канала.
func (r *Registry) Listen(ctx context.Context, p ListenParams) error {
	if p.Queue == "" || p.Handler == nil {
		return fmt.Errorf("%w: queue and handler are required", ErrInvalidListenParams)
	}

	prefetch := p.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	if !r.conn.IsConnected() {
		return fmt.Errorf("cannot consume message for queue %s: %w", p.Queue, ErrConnection)
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.Queue, err)
	}

	deliveries, err := setupConsume(ch, p.Queue, prefetch)
	if err != nil {
		ch.Close()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ch.Close()
		r.consume(ctx, p, prefetch, deliveries)
	}()

	r.logger.Info("new consumer registered", "queue", p.Queue, "prefetch", prefetch)
	return nil
}

// setupConsume настраивает канал и начинает потребление.
func setupConsume(ch Channel, queue Queue, prefetch int) (<-chan amqp.Delivery, error) {
	if err := declareQueue(ch, queue); err != nil {
		return nil, fmt.Errorf("%w: declare queue %s: %w", ErrConnection, queue, err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("%w: set qos: %w", ErrConnection, err)
	}

	deliveries, err := ch.Consume(
		string(queue), // queue
		"",            // consumer tag (auto-generated)
		false,         // auto-ack (ack вручную)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return nil, fmt.Errorf("%w: consume: %w", ErrConnection, err)
	}

	return deliveries, nil
}

// consume — основной цикл потребления.
//
// Одновременно выполняется не больше prefetch обработчиков. Перед выходом
// ждёт обработчики и отложенные retry, чтобы канал закрылся после их ack.
func (r *Registry) consume(ctx context.Context, p ListenParams, prefetch int, deliveries <-chan amqp.Delivery) {
	sem := make(chan struct{}, prefetch)
	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return

		case d, ok := <-deliveries:
			if !ok {
				r.logger.Warn("deliveries channel closed", "queue", p.Queue)
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			inflight.Add(1)
			go func() {
				defer inflight.Done()
				defer func() { <-sem }()
				r.handleDelivery(ctx, p, d, &inflight)
			}()
		}
	}
}

// handleDelivery обрабатывает одну доставку.
func (r *Registry) handleDelivery(ctx context.Context, p ListenParams, d amqp.Delivery, inflight *sync.WaitGroup) {
	env := EnvelopeFromDelivery(p.Queue, d)
	queue := string(p.Queue)

	if d.CorrelationId == "" {
		r.logger.Warn("message without correlation id, assigned a local one", "id", env.ID, "queue", p.Queue)
	}

	r.logger.Info("receiving new message",
		"event", "RECEIVED",
		"id", env.ID,
		"queue", p.Queue,
		"retries", fmt.Sprintf("%d/%d", env.RetryCount, MaxRetries),
		"failed", env.RetryCount != 0,
	)
	telemetry.MessagesReceived.WithLabelValues(queue).Inc()

	start := time.Now()
	err := invoke(ctx, p.Handler, Message{
		ID:         env.ID,
		Queue:      p.Queue,
		Payload:    env.Payload,
		RetryCount: env.RetryCount,
	})
	telemetry.HandlerDuration.WithLabelValues(queue, telemetry.Outcome(err)).Observe(time.Since(start).Seconds())

	if err == nil {
		r.ack(d, env)
		return
	}

	if ctx.Err() != nil {
		// Без ack: брокер доставит сообщение заново после закрытия канала
		r.logger.Warn("handler interrupted on shutdown, leaving message unacked",
			"id", env.ID,
			"queue", p.Queue,
			"retries", fmt.Sprintf("%d/%d", env.RetryCount, MaxRetries),
			"error", err,
		)
		return
	}

	if env.Exhausted() {
		r.logger.Error("max retries reached, discarding",
			"id", env.ID,
			"queue", p.Queue,
			"retries", fmt.Sprintf("%d/%d", env.RetryCount, MaxRetries),
			"error", err,
		)
		telemetry.MessagesDiscarded.WithLabelValues(queue).Inc()
		r.ack(d, env)
		return
	}

	r.logger.Warn("handler failed, scheduling retry",
		"id", env.ID,
		"queue", p.Queue,
		"retries", fmt.Sprintf("%d/%d", env.RetryCount, MaxRetries),
		"retry_in", r.retryBackoff,
		"error", err,
	)

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		r.retry(ctx, d, env)
	}()
}

// retry ждёт RetryBackoff, публикует копию с RetryCount+1 и подтверждает
// оригинал. Если публикация не удалась, оригинал возвращается в очередь.
func (r *Registry) retry(ctx context.Context, d amqp.Delivery, env Envelope) {
	timer := time.NewTimer(r.retryBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		// Без ack: брокер доставит сообщение заново после закрытия канала
		r.logger.Warn("retry abandoned on shutdown", "id", env.ID, "queue", env.Queue)
		return
	case <-timer.C:
	}

	if err := r.publisher.Republish(ctx, env.NextRetry()); err != nil {
		r.logger.Error("failed to republish message, requeueing original",
			"id", env.ID,
			"queue", env.Queue,
			"error", err,
		)
		if err := d.Nack(false, true); err != nil {
			r.logger.Error("failed to nack message", "id", env.ID, "queue", env.Queue, "error", err)
		}
		return
	}

	telemetry.MessagesRetried.WithLabelValues(string(env.Queue)).Inc()
	r.ack(d, env)
}

func (r *Registry) ack(d amqp.Delivery, env Envelope) {
	if err := d.Ack(false); err != nil {
		r.logger.Error("failed to ack message", "id", env.ID, "queue", env.Queue, "error", err)
	}
}

// Wait блокируется, пока не завершатся все подписки (после отмены ctx).
func (r *Registry) Wait() {
	r.wg.Wait()
}

// invoke вызывает обработчик, превращая panic в ошибку.
func invoke(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()
	return h(ctx, msg)
}
