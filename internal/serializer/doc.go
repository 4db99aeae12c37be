// Package serializer выполняет ресурсоёмкие задачи строго по одной.
//
// # Обзор
//
// Consumer RabbitMQ может держать несколько доставок одновременно (prefetch),
// но браузер должен обслуживать одну сессию за раз. Serializer — FIFO-очередь
// в памяти процесса с единственным флагом busy:
//
//	s := serializer.New(logger)
//	done := s.Add(msg.ID, func() error { return scrape(ctx) })
//	err := <-done
//
// # Порядок и замена по ключу
//
// Задачи хранятся в упорядоченной связной структуре (ключ → элемент списка).
// Add с ключом, который ещё ждёт запуска, заменяет функцию на месте: позиция
// в очереди сохраняется, выполнится только последняя версия, а канал
// вытесненной получает ErrSuperseded. Запущенная задача из очереди уже
// удалена, поэтому Add с её ключом ставит новую задачу в конец.
//
// # Гарантии
//
//   - одновременно выполняется не больше одной задачи
//   - T1 добавлена раньше T2 и обе ждут запуска ⇒ T1 завершится до старта T2
//   - запущенная задача не отменяется
//   - ошибка (или panic) задачи логируется и не останавливает очередь
package serializer
