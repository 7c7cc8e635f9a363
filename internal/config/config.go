// Package config собирает конфигурацию поиска NIP из переменных
// окружения и необязательного JSON-файла. Конфигурация строится один
// раз на старте процесса и передается компонентам явно, без
// глобального состояния.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация резолвера NIP
type Config struct {
	// Сервер
	Port string `json:"port"`

	// Кэш результатов
	CachePath          string `json:"cache_path"`
	CacheTTLDays       int    `json:"cache_ttl_days"`
	CacheFreshnessDays int    `json:"cache_freshness_days"`

	// Реестр GUS REGON
	Registry *RegistryConfig `json:"registry"`

	// Поисковый движок
	Search *SearchConfig `json:"search"`

	// Семантический классификатор
	Classifier *ClassifierConfig `json:"classifier"`

	// Скрапинг сайтов фирм
	Scraper *ScraperConfig `json:"scraper"`

	// Стратегии и политика принятия
	Strategies *StrategiesConfig `json:"strategies"`
}

// RegistryConfig конфигурация клиента реестра GUS
type RegistryConfig struct {
	APIKey          string        `json:"api_key"`
	BaseURL         string        `json:"base_url"`
	Timeout         time.Duration `json:"timeout"`
	RateLimitPerSec float64       `json:"rate_limit_per_sec"`
}

// SearchConfig конфигурация поискового движка
type SearchConfig struct {
	APIKey          string        `json:"api_key"`
	BaseURL         string        `json:"base_url"`
	Timeout         time.Duration `json:"timeout"`
	RateLimitPerSec float64       `json:"rate_limit_per_sec"`
	CacheEnabled    bool          `json:"cache_enabled"`
	CacheTTL        time.Duration `json:"cache_ttl"`
	MaxRetries      int           `json:"max_retries"`
}

// ClassifierConfig конфигурация семантического классификатора
type ClassifierConfig struct {
	APIKey     string        `json:"api_key"`
	BaseURL    string        `json:"base_url"`
	Model      string        `json:"model"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
}

// ScraperConfig конфигурация загрузчика страниц
type ScraperConfig struct {
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
}

// StrategiesConfig настройки каскада стратегий
type StrategiesConfig struct {
	EnableGUSSearch       bool `json:"enable_gus_search"`
	EnableSnippetSearch   bool `json:"enable_snippet_search"`
	EnableScrapers        bool `json:"enable_scrapers"`
	EnableDomainDiscovery bool `json:"enable_domain_discovery"`
	EnableNameSearch      bool `json:"enable_name_search"`

	// Политика принятия кандидатов
	StrictMode                bool    `json:"strict_mode"`
	RequireIdentityValidation bool    `json:"require_identity_validation"`
	IdentityThreshold         float64 `json:"identity_threshold"`

	// Пакетная обработка
	MaxConcurrent int `json:"max_concurrent"`
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	config := &Config{
		Port: getEnv("SERVER_PORT", "8080"),

		CachePath:          getEnv("NIP_CACHE_PATH", "nip_cache.db"),
		CacheTTLDays:       getEnvInt("NIP_CACHE_TTL_DAYS", 30),
		CacheFreshnessDays: getEnvInt("NIP_CACHE_FRESHNESS_DAYS", 14),

		Registry: &RegistryConfig{
			APIKey:          os.Getenv("GUS_API_KEY"),
			BaseURL:         getEnv("GUS_BASE_URL", "https://wyszukiwarkaregon.stat.gov.pl/wsBIR/UslugaBIRzewnPubl.svc"),
			Timeout:         getEnvDuration("GUS_TIMEOUT", 30*time.Second),
			RateLimitPerSec: getEnvFloat("GUS_RATE_LIMIT_PER_SEC", 2.0),
		},

		Search: &SearchConfig{
			APIKey:          os.Getenv("BRAVE_API_KEY"),
			BaseURL:         getEnv("BRAVE_BASE_URL", "https://api.search.brave.com/res/v1/web/search"),
			Timeout:         getEnvDuration("BRAVE_TIMEOUT", 10*time.Second),
			RateLimitPerSec: getEnvFloat("BRAVE_RATE_LIMIT_PER_SEC", 1.0),
			CacheEnabled:    getEnv("BRAVE_CACHE_ENABLED", "true") == "true",
			CacheTTL:        getEnvDuration("BRAVE_CACHE_TTL", 24*time.Hour),
			MaxRetries:      getEnvInt("BRAVE_MAX_RETRIES", 3),
		},

		Classifier: &ClassifierConfig{
			APIKey:     os.Getenv("GEMINI_API_KEY"),
			BaseURL:    getEnv("GEMINI_BASE_URL", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
			Timeout:    getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvInt("GEMINI_MAX_RETRIES", 5),
		},

		Scraper: &ScraperConfig{
			UserAgent: getEnv("SCRAPER_USER_AGENT", "NIPFinder/1.0 (compatible)"),
			Timeout:   getEnvDuration("SCRAPER_TIMEOUT", 10*time.Second),
		},

		Strategies: &StrategiesConfig{
			EnableGUSSearch:       getEnv("ENABLE_GUS_SEARCH", "true") == "true",
			EnableSnippetSearch:   getEnv("ENABLE_SNIPPET_SEARCH", "true") == "true",
			EnableScrapers:        getEnv("ENABLE_SCRAPERS", "true") == "true",
			EnableDomainDiscovery: getEnv("ENABLE_DOMAIN_DISCOVERY", "true") == "true",
			EnableNameSearch:      getEnv("ENABLE_NAME_SEARCH", "true") == "true",

			StrictMode:                getEnv("STRICT_MODE", "true") == "true",
			RequireIdentityValidation: getEnv("REQUIRE_IDENTITY_VALIDATION", "true") == "true",
			IdentityThreshold:         getEnvFloat("IDENTITY_THRESHOLD", 0.7),

			MaxConcurrent: getEnvInt("BATCH_MAX_CONCURRENT", 3),
		},
	}

	// Необязательный JSON-файл перекрывает значения из окружения
	if path := os.Getenv("NIP_CONFIG_FILE"); path != "" {
		if err := config.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// applyFile накладывает JSON-файл поверх текущих значений
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("cache path is required")
	}
	if c.CacheTTLDays <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d", c.CacheTTLDays)
	}
	if c.CacheFreshnessDays < 0 || c.CacheFreshnessDays > c.CacheTTLDays {
		return fmt.Errorf("freshness threshold %d must be within TTL %d", c.CacheFreshnessDays, c.CacheTTLDays)
	}
	if c.Strategies.IdentityThreshold < 0 || c.Strategies.IdentityThreshold > 1 {
		return fmt.Errorf("identity threshold must be in [0,1], got %f", c.Strategies.IdentityThreshold)
	}
	if c.Strategies.MaxConcurrent <= 0 {
		return fmt.Errorf("batch concurrency must be positive, got %d", c.Strategies.MaxConcurrent)
	}
	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
