// Package browser — пул долгоживущих сессий headless Chrome (chromedp).
//
// Каждая горутина пула владеет одним процессом браузера и обслуживает
// запросы из общего канала. Запрос выполняется в новой вкладке, которая
// закрывается после выполнения.
//
//	pool, err := browser.NewPool(ctx, browser.PoolConfig{Size: 1})
//	defer pool.Close()
//
//	err = pool.Do(ctx, func(tab context.Context) error {
//	    return chromedp.Run(tab, chromedp.Navigate(url))
//	})
package browser
