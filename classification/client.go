// Package classification реализует семантическую проверку через внешний
// классификатор (Gemini REST API): подтверждение принадлежности NIP
// фирме и выбор официального домена из поисковой выдачи.
package classification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	defaultModel       = "gemini-2.5-flash-lite"
	defaultBaseURL     = "https://aiplatform.googleapis.com/v1/publishers/google/models"
	defaultTemperature = 0.1
	defaultMaxTokens   = 300
	defaultMaxRetries  = 5
)

// ErrNoAPIKey классификатор недоступен без ключа API
var ErrNoAPIKey = fmt.Errorf("classifier API key is not configured")

// GeminiClient клиент генеративной модели через REST API
type GeminiClient struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	maxRetries  int
	retryBase   time.Duration
	httpClient  *http.Client
}

// GeminiConfig конфигурация клиента классификатора
type GeminiConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	// Базовая пауза перед повтором после 429, растет как 2^attempt
	RetryBaseDelay time.Duration
	Timeout        time.Duration
}

// NewGeminiClient создает клиент классификатора
func NewGeminiClient(config GeminiConfig) *GeminiClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = 3 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &GeminiClient{
		baseURL:     config.BaseURL,
		model:       config.Model,
		apiKey:      config.APIKey,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		maxRetries:  config.MaxRetries,
		retryBase:   config.RetryBaseDelay,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Available сообщает, настроен ли классификатор
func (c *GeminiClient) Available() bool {
	return c.apiKey != ""
}

// generateContentRequest формат запроса generateContent
type generateContentRequest struct {
	Contents         []contentPart    `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type contentPart struct {
	Role  string     `json:"role"`
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateContentResponse формат ответа generateContent
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText отправляет промпт модели и возвращает текст первого
// кандидата. При 429 повторяет с экспоненциальной паузой.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	payload := generateContentRequest{
		Contents: []contentPart{
			{Role: "user", Parts: []textPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		text, retryable, err := c.requestOnce(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !retryable || attempt == c.maxRetries-1 {
			break
		}

		wait := c.retryBase * time.Duration(1<<attempt) // 3s, 6s, 12s, 24s
		log.Printf("[Classifier] WARN: rate limit, retry %d/%d after %v", attempt+1, c.maxRetries, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("classifier request failed: %w", lastErr)
}

func (c *GeminiClient) requestOnce(ctx context.Context, url string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var apiResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty response from model")
	}

	return apiResp.Candidates[0].Content.Parts[0].Text, false, nil
}
