// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - broker.go     — абстракция над amqp.Connection/amqp.Channel
//   - connection.go — управление соединением (блокирующий Connect с бесконечным retry)
//   - envelope.go   — Envelope: id, retry count, payload
//   - topology.go   — имена очередей и пары <source>_scraper → <source>_store
//   - publisher.go  — публикация сообщений в durable очереди
//   - consumer.go   — Registry: подписка обработчиков с prefetch и политикой retry/discard
//
// Протокол:
//   - тело сообщения — JSON (application/json), delivery mode persistent
//   - correlationId — идентификатор логического сообщения, сохраняется между retry
//   - заголовок x-retry — номер повторной попытки (нет заголовка ⇒ 0)
//
// Retry:
//
// Ошибка обработчика приводит к повторной публикации того же payload в ту же
// очередь с x-retry+1 после паузы RetryBackoff. Пауза выполняется в отдельной
// горутине и не блокирует остальные доставки канала. После MaxRetries
// сообщение подтверждается и отбрасывается (DLQ нет).
package mq
