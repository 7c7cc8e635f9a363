// Package app собирает каскад поиска NIP из конфигурации: клиенты
// внешних сервисов, стратегии, валидатор, кэш. Все зависимости
// создаются один раз и передаются явно.
package app

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"nipfinder/cache"
	"nipfinder/classification"
	"nipfinder/finder"
	"nipfinder/internal/config"
	"nipfinder/registry"
	"nipfinder/scraper"
	"nipfinder/strategies"
	"nipfinder/validation"
	"nipfinder/websearch"
)

// App собранный каскад с его зависимостями
type App struct {
	Config *config.Config
	Cache  *cache.NIPCache
	Finder *finder.Finder
}

// New строит каскад по конфигурации. Стратегии без учетных данных
// остаются в каскаде, но отключаются на уровне Available.
func New(cfg *config.Config) (*App, error) {
	nipCache, err := cache.NewNIPCache(cfg.CachePath, cfg.CacheTTLDays, cfg.CacheFreshnessDays)
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	registryClient := registry.NewClient(registry.ClientConfig{
		BaseURL:   cfg.Registry.BaseURL,
		APIKey:    cfg.Registry.APIKey,
		Timeout:   cfg.Registry.Timeout,
		RateLimit: rate.Limit(cfg.Registry.RateLimitPerSec),
	})

	var searchCache *websearch.Cache
	if cfg.Search.CacheEnabled {
		searchCache = websearch.NewCache(&websearch.CacheConfig{
			Enabled:         true,
			TTL:             cfg.Search.CacheTTL,
			CleanupInterval: time.Hour,
			MaxSize:         1000,
		})
	}
	searchClient := websearch.NewClient(websearch.ClientConfig{
		BaseURL:    cfg.Search.BaseURL,
		APIKey:     cfg.Search.APIKey,
		Timeout:    cfg.Search.Timeout,
		RateLimit:  rate.Limit(cfg.Search.RateLimitPerSec),
		MaxRetries: cfg.Search.MaxRetries,
		Cache:      searchCache,
	})

	gemini := classification.NewGeminiClient(classification.GeminiConfig{
		BaseURL:    cfg.Classifier.BaseURL,
		Model:      cfg.Classifier.Model,
		APIKey:     cfg.Classifier.APIKey,
		MaxRetries: cfg.Classifier.MaxRetries,
		Timeout:    cfg.Classifier.Timeout,
	})
	identity := classification.NewIdentityValidator(gemini)
	discovery := classification.NewDomainDiscovery(gemini)

	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
	})

	domainValidator := validation.NewDomainValidator(validation.DomainValidatorConfig{
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
	})
	validator := validation.NewNIPValidator(domainValidator, identity, validation.Policy{
		RequireDomainValidation:   cfg.Strategies.StrictMode,
		RequireIdentityValidation: cfg.Strategies.RequireIdentityValidation,
		IdentityThreshold:         cfg.Strategies.IdentityThreshold,
	})

	privacyScraper := strategies.NewPrivacyScraper(fetcher)
	homepageScraper := strategies.NewHomepageScraper(fetcher)

	var strats []strategies.Strategy
	if cfg.Strategies.EnableGUSSearch {
		strats = append(strats, strategies.NewGUSSearch(registryClient))
	}
	if cfg.Strategies.EnableSnippetSearch {
		strats = append(strats, strategies.NewSnippetSearch(searchClient, identity))
	}
	if cfg.Strategies.EnableScrapers {
		strats = append(strats, privacyScraper, homepageScraper)
	}
	if cfg.Strategies.EnableDomainDiscovery {
		strats = append(strats, strategies.NewDomainDiscovery(searchClient, discovery, privacyScraper, homepageScraper))
	}
	if cfg.Strategies.EnableNameSearch {
		strats = append(strats, strategies.NewNameSearch(searchClient, identity))
	}

	log.Printf("[App] INFO: cascade assembled with %d strategies, strict mode %v",
		len(strats), cfg.Strategies.StrictMode)

	return &App{
		Config: cfg,
		Cache:  nipCache,
		Finder: finder.New(nipCache, validator, strats, finder.Options{
			StrictMode: cfg.Strategies.StrictMode,
		}),
	}, nil
}

// Close освобождает ресурсы каскада
func (a *App) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
