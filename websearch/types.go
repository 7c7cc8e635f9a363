// Package websearch реализует клиент поисковой системы с кэшем и
// ограничением частоты запросов. Стратегии используют только сниппеты
// из выдачи, переход по ссылкам выполняют скраперы.
package websearch

import "time"

// SearchItem один результат поисковой выдачи
type SearchItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchResponse ответ поисковой системы на один запрос
type SearchResponse struct {
	Query     string       `json:"query"`
	Results   []SearchItem `json:"results"`
	Timestamp time.Time    `json:"timestamp"`
	FromCache bool         `json:"from_cache"`
}
