package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel — подмножество методов *amqp.Channel, которое использует пакет.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker — установленное соединение с брокером.
type Broker interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// DialFunc открывает соединение с брокером по URL.
type DialFunc func(url string) (Broker, error)

// amqpBroker адаптирует *amqp.Connection к Broker.
type amqpBroker struct {
	conn *amqp.Connection
}

// DialAMQP — DialFunc по умолчанию.
func DialAMQP(url string) (Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpBroker{conn: conn}, nil
}

func (b *amqpBroker) Channel() (Channel, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (b *amqpBroker) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return b.conn.NotifyClose(receiver)
}

func (b *amqpBroker) Close() error {
	return b.conn.Close()
}

// declareQueue объявляет durable очередь. Операция идемпотентна.
func declareQueue(ch Channel, queue Queue) error {
	_, err := ch.QueueDeclare(
		string(queue), // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	return err
}
