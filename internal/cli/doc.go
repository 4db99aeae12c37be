// Package cli реализует инструмент командной строки Harvester.
//
// # Обзор
//
// CLI публикует разовые запросы на сбор данных в RabbitMQ, показывает
// топологию очередей, следующие срабатывания расписания и состояние
// сервисов (/healthz).
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для /healthz сервисов Harvester.
//
//	client := cli.NewClient(10 * time.Second)
//	status := client.Health("worker", "http://localhost:8082")
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: harvester topology --json | jq .
//
// ## Commands
//
//   - scrape <ptax|cme|the_news> [--date YYYY-MM-DD]
//   - topology
//   - schedule next <cron> [--count N] [--tz TZ]
//   - status
//
// Команды создаются фабричными функциями (NewScrapeCmd и т.д.),
// принимающими замыкания для ленивого создания зависимостей после
// парсинга PersistentFlags.
package cli
