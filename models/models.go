package models

import (
	"encoding/json"
	"time"
)

// SearchStrategy идентификатор стратегии поиска NIP
type SearchStrategy string

const (
	StrategyCache           SearchStrategy = "cache"
	StrategyGUSSearch       SearchStrategy = "gus_search"
	StrategySnippetSearch   SearchStrategy = "snippet_search"
	StrategyPrivacyScraper  SearchStrategy = "privacy_scraper"
	StrategyHomepageScraper SearchStrategy = "homepage_scraper"
	StrategyDomainDiscovery SearchStrategy = "domain_discovery"
	StrategyNameSearch      SearchStrategy = "name_search"
	StrategyNone            SearchStrategy = "none"
)

// NIPRequest запрос на поиск NIP. Создается один раз на вызов и не мутируется.
type NIPRequest struct {
	CompanyName string `json:"company_name"`       // Название фирмы (обязательное)
	City        string `json:"city,omitempty"`     // Город (опционально)
	Email       string `json:"email,omitempty"`    // Email (опционально, только для извлечения домена)
	SkipCache   bool   `json:"skip_cache,omitempty"`
}

// NIPCandidate кандидат на NIP, произведенный стратегией.
// После создания не мутируется - пересчет confidence дает новую копию через Rescored.
type NIPCandidate struct {
	NIP              string         `json:"nip"`                          // NIP (10 цифр)
	NIPFormatted     string         `json:"nip_formatted"`                // NIP в формате XXX-XXX-XX-XX
	Confidence       float64        `json:"confidence"`                   // Уверенность (0.0-1.0)
	Strategy         SearchStrategy `json:"strategy"`                     // Стратегия-источник
	CompanyNameFound string         `json:"company_name_found,omitempty"` // Название фирмы рядом с NIP
	SourceURL        string         `json:"source_url,omitempty"`         // URL источника
	SourceSnippet    string         `json:"source_snippet,omitempty"`     // Сниппет источника
	SourceQuery      string         `json:"source_query,omitempty"`       // Поисковый запрос
	DiscoveredDomain string         `json:"discovered_domain,omitempty"`  // Домен, обнаруженный вместе с NIP
	Reasoning        string         `json:"reasoning,omitempty"`          // Обоснование семантического классификатора
}

// Rescored возвращает копию кандидата с новым значением confidence
func (c NIPCandidate) Rescored(confidence float64) NIPCandidate {
	out := c
	out.Confidence = confidence
	return out
}

// ValidationResult результат трехуровневой валидации NIP.
// DomainValid - тристейт: nil = уровень пропущен, true/false = проверено.
type ValidationResult struct {
	Validated      bool     `json:"validated"`                  // Итоговый вердикт
	ChecksumValid  bool     `json:"checksum_valid"`             // Уровень 1: контрольная сумма
	DomainValid    *bool    `json:"domain_valid,omitempty"`     // Уровень 2: nil = пропущено
	IdentityValid  *bool    `json:"identity_valid,omitempty"`   // Уровень 3: nil = не требовалось
	IdentityScore  float64  `json:"identity_score,omitempty"`   // Score семантической проверки
	IdentityReason string   `json:"identity_reason,omitempty"`  // Обоснование классификатора
	Errors         []string `json:"errors,omitempty"`           // Диагностика
}

// ToJSON сериализует вердикт для хранения в кэше
func (v *ValidationResult) ToJSON() string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ValidationFromJSON восстанавливает вердикт из кэшированного JSON
func ValidationFromJSON(raw string) *ValidationResult {
	if raw == "" || raw == "{}" {
		return nil
	}
	var v ValidationResult
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return &v
}

// ScrapedCompanyData контактные данные, собранные при скрапинге страниц фирмы
type ScrapedCompanyData struct {
	Domain       string            `json:"domain,omitempty"`
	Emails       []string          `json:"emails,omitempty"`
	Phones       []string          `json:"phones,omitempty"` // В формате +48XXXXXXXXX
	Addresses    []string          `json:"addresses,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"` // Платформа -> URL
	WebsiteTitle string            `json:"website_title,omitempty"`
	SourceURLs   []string          `json:"source_urls,omitempty"`
}

// Merge объединяет данные с другого ScrapedCompanyData без дубликатов
func (s *ScrapedCompanyData) Merge(other *ScrapedCompanyData) *ScrapedCompanyData {
	if s == nil {
		return other
	}
	if other == nil {
		return s
	}

	merged := &ScrapedCompanyData{
		Domain:       s.Domain,
		Emails:       uniqueStrings(s.Emails, other.Emails),
		Phones:       uniqueStrings(s.Phones, other.Phones),
		Addresses:    uniqueStrings(s.Addresses, other.Addresses),
		SocialLinks:  make(map[string]string, len(s.SocialLinks)+len(other.SocialLinks)),
		WebsiteTitle: s.WebsiteTitle,
		SourceURLs:   uniqueStrings(s.SourceURLs, other.SourceURLs),
	}

	if merged.Domain == "" {
		merged.Domain = other.Domain
	}
	if merged.WebsiteTitle == "" {
		merged.WebsiteTitle = other.WebsiteTitle
	}
	for k, v := range s.SocialLinks {
		merged.SocialLinks[k] = v
	}
	for k, v := range other.SocialLinks {
		merged.SocialLinks[k] = v
	}

	return merged
}

// IsEmpty сообщает, собраны ли хоть какие-то контактные данные
func (s *ScrapedCompanyData) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.Emails) == 0 && len(s.Phones) == 0 && len(s.SocialLinks) == 0
}

func uniqueStrings(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// NIPResult итоговый результат поиска NIP.
// Единственный объект, который видят внешние потребители каскада.
type NIPResult struct {
	RequestID   string `json:"request_id"`
	CompanyName string `json:"company_name"`
	City        string `json:"city,omitempty"`

	Found        bool   `json:"found"`
	NIP          string `json:"nip,omitempty"`
	NIPFormatted string `json:"nip_formatted,omitempty"`

	Confidence   float64           `json:"confidence"`
	StrategyUsed SearchStrategy    `json:"strategy_used,omitempty"`
	Validation   *ValidationResult `json:"validation,omitempty"`

	// Отклоненные альтернативные кандидаты (max 5)
	Alternatives []NIPCandidate `json:"alternatives,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	ProcessingTimeMS int64   `json:"processing_time_ms"`
	CostUSD          float64 `json:"cost_usd"`

	ScrapedData *ScrapedCompanyData `json:"scraped_data,omitempty"`

	FromCache    bool `json:"from_cache"`
	CacheAgeDays int  `json:"cache_age_days,omitempty"`
}

// AddWarning добавляет предупреждение к результату
func (r *NIPResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// CacheEntry запись в кэше результатов
type CacheEntry struct {
	CompanyName    string    `json:"company_name"` // Нормализованный ключ
	City           string    `json:"city"`         // Нормализованный ключ
	NIP            string    `json:"nip"`          // Пустая строка = негативный результат
	Confidence     float64   `json:"confidence"`
	Strategy       string    `json:"strategy"`
	ValidationJSON string    `json:"validation_json"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdatedAt  time.Time `json:"last_updated_at"`
}

// AgeDays возвращает возраст записи в днях с момента последнего обновления.
// Перезапись ключа продлевает жизнь записи, поэтому TTL и предупреждение
// о свежести считаются от last_updated_at, а не от created_at.
func (e *CacheEntry) AgeDays(now time.Time) int {
	return int(now.Sub(e.LastUpdatedAt).Hours() / 24)
}

// IsExpired проверяет, истек ли TTL записи
func (e *CacheEntry) IsExpired(now time.Time, ttlDays int) bool {
	return e.AgeDays(now) > ttlDays
}

// NeedsFreshnessWarning проверяет, нужно ли предупреждение о свежести
func (e *CacheEntry) NeedsFreshnessWarning(now time.Time, warningDays int) bool {
	return e.AgeDays(now) > warningDays
}

// BatchRequest запрос на пакетную обработку
type BatchRequest struct {
	Companies     []NIPRequest `json:"companies"`
	MaxConcurrent int          `json:"max_concurrent,omitempty"`
	SkipCache     bool         `json:"skip_cache,omitempty"`
}

// BatchResult результат пакетной обработки
type BatchResult struct {
	Results       []NIPResult    `json:"results"`
	Total         int            `json:"total"`
	Found         int            `json:"found"`
	NotFound      int            `json:"not_found"`
	SuccessRate   float64        `json:"success_rate"`
	TotalCostUSD  float64        `json:"total_cost_usd"`
	AvgCostUSD    float64        `json:"avg_cost_usd"`
	TotalTimeMS   int64          `json:"total_time_ms"`
	StrategyStats map[string]int `json:"strategy_stats,omitempty"`
}
