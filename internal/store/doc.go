// Package store сохраняет собранные данные в PostgreSQL.
//
// Store подписывается на очереди *_store и передаёт payload в репозитории:
//
//	ptax_data_store        → repo.PtaxRepo    (ptax_rates)
//	cme_data_store         → repo.CmeRepo     (cme_quotes)
//	the_news_article_store → repo.ArticleRepo (news_articles)
//
// Запись идемпотентна: повторная доставка того же сообщения не создаёт
// дубликатов. Ошибка БД возвращается в mq.Registry и запускает retry.
//
// Если задан Publisher, сохранённая статья The News дополнительно
// публикуется в the_news_article_generation.
package store
