// Package scheduler публикует запросы на сбор данных по расписанию.
//
// Каждый Job — источник и cron-выражение. На каждом срабатывании в очередь
// *_scraper источника публикуется domain.ScrapeRequest с сегодняшней датой
// в часовом поясе планировщика (default: America/Sao_Paulo).
//
// Структура:
//   - scheduler.go — Scheduler (Start, Stop, Trigger)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Publisher: publisher,
//	    Jobs: []scheduler.Job{
//	        {Source: domain.SourcePtax, Spec: "0 14 * * 1-5"},
//	    },
//	    Leader: repo.NewAdvisoryLock(pool, key), // опционально
//	    Logger: logger,
//	})
//	sched.Start(ctx)
//	defer sched.Stop()
//
// Leader Election:
//
// Если задан Leader, публикует только экземпляр, удерживающий
// pg_try_advisory_lock. Остальные пропускают срабатывания.
package scheduler
