package mq

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// HeaderRetry — заголовок с номером повторной попытки.
	HeaderRetry = "x-retry"

	// ContentTypeJSON — content type всех сообщений.
	ContentTypeJSON = "application/json"

	// MaxRetries — после стольких повторов сообщение отбрасывается.
	MaxRetries = 3
)

// Envelope — единица данных в очереди.
//
// ID генерируется при первой публикации и сохраняется между retry.
// RetryCount растёт только при повторной публикации того же сообщения.
type Envelope struct {
	ID         string
	Queue      Queue
	Payload    []byte
	RetryCount int
	Persistent bool
}

// Publishing превращает Envelope в AMQP-сообщение.
func (e Envelope) Publishing() amqp.Publishing {
	pub := amqp.Publishing{
		ContentType:   ContentTypeJSON,
		CorrelationId: e.ID,
		Timestamp:     time.Now(),
		Body:          e.Payload,
	}
	if e.Persistent {
		pub.DeliveryMode = amqp.Persistent
	}
	if e.RetryCount > 0 {
		pub.Headers = amqp.Table{HeaderRetry: int32(e.RetryCount)}
	}
	return pub
}

// NextRetry возвращает Envelope для повторной публикации: тот же ID и payload,
// RetryCount+1.
func (e Envelope) NextRetry() Envelope {
	e.RetryCount++
	e.Persistent = true
	return e
}

// Exhausted — повторы исчерпаны, сообщение нужно отбросить.
func (e Envelope) Exhausted() bool {
	return e.RetryCount >= MaxRetries
}

// EnvelopeFromDelivery восстанавливает Envelope из доставки.
//
// Без correlationId используется MessageId, а без него — новый uuid,
// чтобы ключи разных сообщений не совпадали.
func EnvelopeFromDelivery(queue Queue, d amqp.Delivery) Envelope {
	id := d.CorrelationId
	if id == "" {
		id = d.MessageId
	}
	if id == "" {
		id = uuid.NewString()
	}

	return Envelope{
		ID:         id,
		Queue:      queue,
		Payload:    d.Body,
		RetryCount: RetryCount(d.Headers),
		Persistent: d.DeliveryMode == amqp.Persistent,
	}
}

// RetryCount читает x-retry из заголовков. Отсутствующее или
// некорректное значение даёт 0.
func RetryCount(headers amqp.Table) int {
	raw, ok := headers[HeaderRetry]
	if !ok {
		return 0
	}

	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case float32:
		n = int64(v)
	case float64:
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// encodeBody кодирует payload в JSON. []byte и json.RawMessage
// передаются как есть.
func encodeBody(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return body, nil
}
