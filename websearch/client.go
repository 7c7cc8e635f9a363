package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Значения по умолчанию под польскую выдачу
	defaultCountry  = "pl"
	defaultLanguage = "pl"
	defaultCount    = 10
	maxCount        = 20
	maxQueryLength  = 200
)

// ErrNoAPIKey поиск невозможен без ключа API
var ErrNoAPIKey = fmt.Errorf("search API key is not configured")

// braveResponse формат ответа Brave Search API (используем только web.results)
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Client клиент поисковой системы (Brave Search API)
type Client struct {
	baseURL    string
	apiKey     string
	country    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
	maxRetries int
	retryBase  time.Duration
}

// ClientConfig конфигурация клиента
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Country    string
	Language   string
	Timeout    time.Duration
	RateLimit  rate.Limit
	MaxRetries int
	// Базовая пауза перед повтором после 429, растет экспоненциально
	RetryBaseDelay time.Duration
	Cache          *Cache
}

// NewClient создает клиент поисковой системы
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.search.brave.com/res/v1/web/search"
	}
	if config.Country == "" {
		config.Country = defaultCountry
	}
	if config.Language == "" {
		config.Language = defaultLanguage
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = rate.Every(time.Second) // 1 запрос в секунду
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = 2 * time.Second
	}

	return &Client{
		baseURL:  config.BaseURL,
		apiKey:   config.APIKey,
		country:  config.Country,
		language: config.Language,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:    rate.NewLimiter(config.RateLimit, 1),
		cache:      config.Cache,
		maxRetries: config.MaxRetries,
		retryBase:  config.RetryBaseDelay,
	}
}

// Search выполняет поисковый запрос и возвращает сниппеты выдачи.
// Повторный запрос в пределах TTL кэша не тратит квоту API.
func (c *Client) Search(ctx context.Context, query string, count int) (*SearchResponse, error) {
	query = sanitizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("empty query after sanitization")
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	cacheKey := generateCacheKey(query, count)
	if c.cache != nil {
		if cached, found := c.cache.Get(cacheKey); found {
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		}
	}

	response, err := c.doSearch(ctx, query, count)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, response)
	}
	return response, nil
}

// doSearch выполняет запрос к API с повторами при 429
func (c *Client) doSearch(ctx context.Context, query string, count int) (*SearchResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		response, retryable, err := c.requestOnce(ctx, query, count)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !retryable {
			return nil, err
		}

		// Квота API: ждем с экспоненциальным ростом
		select {
		case <-time.After(c.retryBase * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("search failed after %d attempts: %w", c.maxRetries, lastErr)
}

// requestOnce выполняет один HTTP-запрос. Флаг retryable означает, что
// ошибка временная (429) и запрос стоит повторить после паузы.
func (c *Client) requestOnce(ctx context.Context, query string, count int) (*SearchResponse, bool, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("count", fmt.Sprintf("%d", count))
	params.Add("country", c.country)
	params.Add("search_lang", c.language)
	params.Add("safesearch", "off")

	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	// Accept-Encoding не выставляем вручную: транспорт сам запрашивает
	// gzip и прозрачно распаковывает ответ
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var braveResp braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&braveResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	response := &SearchResponse{
		Query:     query,
		Timestamp: time.Now(),
		Results:   make([]SearchItem, 0, len(braveResp.Web.Results)),
	}
	for _, r := range braveResp.Web.Results {
		if r.URL == "" {
			continue
		}
		response.Results = append(response.Results, SearchItem{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
		})
	}

	return response, false, nil
}

// sanitizeQuery очищает и ограничивает поисковый запрос.
// Обрезка идет по рунам, чтобы не разрывать польские буквы.
func sanitizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if runes := []rune(query); len(runes) > maxQueryLength {
		query = string(runes[:maxQueryLength])
	}
	return query
}

// generateCacheKey генерирует ключ кэша из запроса
func generateCacheKey(query string, count int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", strings.ToLower(query), count)))
	return hex.EncodeToString(hash[:])
}
