package domain

import "fmt"

// Source — источник данных. Каждому источнику соответствует пара очередей
// <source>_scraper → <source>_store.
type Source string

const (
	// SourcePtax — бюллетень курса доллара PTAX (Banco Central do Brasil).
	SourcePtax Source = "ptax"

	// SourceCme — котировки фьючерсов CME.
	SourceCme Source = "cme"

	// SourceTheNews — архив статей The News.
	SourceTheNews Source = "the_news"
)

// Sources возвращает все источники.
func Sources() []Source {
	return []Source{SourcePtax, SourceCme, SourceTheNews}
}

// ParseSource разбирает имя источника.
func ParseSource(s string) (Source, error) {
	for _, src := range Sources() {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// RequiresDate — нужен ли источнику fromDate в запросе.
func (s Source) RequiresDate() bool {
	return s != SourceCme
}
