// Package finder реализует каскад поиска NIP: нормализация запроса,
// кэш, последовательный перебор стратегий от дешевых и надежных к
// дорогим и шумным, валидация каждого кандидата перед принятием.
package finder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/scraper"
	"nipfinder/strategies"
	"nipfinder/validation"
)

// Штраф к confidence кандидата, принятого вопреки проваленной валидации
const permissivePenalty = 0.8

// ResultCache контракт кэша результатов
type ResultCache interface {
	Get(companyName, city string) (*models.CacheEntry, bool, error)
	Set(companyName, city, nip string, confidence float64, strategy models.SearchStrategy, validationJSON string) error
}

// CandidateValidator контракт трехуровневой валидации кандидата
type CandidateValidator interface {
	Validate(ctx context.Context, input validation.ValidateInput) *models.ValidationResult
}

// Finder прогоняет запрос через каскад стратегий.
// Стратегии выполняются строго последовательно: параллельный запуск
// умножил бы расходы на платные запросы без выигрыша в корректности.
type Finder struct {
	cache      ResultCache
	validator  CandidateValidator
	strategies []strategies.Strategy
	strictMode bool
}

// Options настройки каскада
type Options struct {
	// StrictMode требует прохождения полной валидации; иначе
	// принимается любой кандидат с корректной контрольной суммой,
	// со штрафом и предупреждением
	StrictMode bool
}

// New создает каскад поиска NIP. Стратегии перебираются в переданном
// порядке.
func New(cache ResultCache, validator CandidateValidator, strats []strategies.Strategy, opts Options) *Finder {
	return &Finder{
		cache:      cache,
		validator:  validator,
		strategies: strats,
		strictMode: opts.StrictMode,
	}
}

// FindNIP выполняет полный каскад поиска. Никогда не возвращает
// ошибку: любой сбой деградирует до поля результата.
func (f *Finder) FindNIP(ctx context.Context, req models.NIPRequest) *models.NIPResult {
	start := time.Now()

	result := &models.NIPResult{
		RequestID:   uuid.New().String(),
		CompanyName: req.CompanyName,
		City:        req.City,
	}
	defer func() {
		result.ProcessingTimeMS = time.Since(start).Milliseconds()
	}()

	if req.CompanyName == "" {
		result.AddWarning("company name is required")
		return result
	}

	domain := scraper.CompanyDomainFromEmail(req.Email)
	if domain != "" {
		log.Printf("[Finder] INFO: domain %s derived from email for '%s'", domain, req.CompanyName)
	}

	if !req.SkipCache && f.cache != nil {
		if cached := f.fromCache(req); cached != nil {
			cached.RequestID = result.RequestID
			cached.ProcessingTimeMS = time.Since(start).Milliseconds()
			return cached
		}
	}

	var rejected []models.NIPCandidate

	for _, strategy := range f.strategies {
		if ctx.Err() != nil {
			result.AddWarning("resolution cancelled before cascade completion")
			return result
		}
		if !strategy.Available() {
			continue
		}

		log.Printf("[Finder] INFO: trying strategy %s for '%s'", strategy.Name(), req.CompanyName)
		sres := strategy.Find(ctx, req.CompanyName, req.City, domain)

		result.CostUSD += sres.CostUSD
		result.Warnings = append(result.Warnings, sres.Warnings...)
		result.ScrapedData = result.ScrapedData.Merge(sres.ScrapedData)

		if !sres.Found() {
			continue
		}

		candidates := append([]models.NIPCandidate{*sres.Primary}, sres.Alternates...)
		for i, candidate := range candidates {
			verdict := f.validate(ctx, req, candidate, domain)

			accepted := verdict.Validated
			confidence := candidate.Confidence
			if !accepted && !f.strictMode && verdict.ChecksumValid {
				// Пермиссивная политика: контрольной суммы достаточно,
				// но кандидат штрафуется и помечается
				accepted = true
				confidence *= permissivePenalty
				result.AddWarning(fmt.Sprintf(
					"NIP %s accepted under permissive policy despite failed validation", candidate.NIP))
			}

			if !accepted {
				log.Printf("[Finder] INFO: candidate %s from %s rejected: %v",
					candidate.NIP, strategy.Name(), verdict.Errors)
				if len(rejected) < 5 {
					rejected = append(rejected, candidate)
				}
				continue
			}

			if i > 0 {
				result.AddWarning(fmt.Sprintf(
					"primary candidate %s failed validation, substituted alternate %s",
					sres.Primary.NIP, candidate.NIP))
			}

			result.Found = true
			result.NIP = candidate.NIP
			result.NIPFormatted = candidate.NIPFormatted
			result.Confidence = confidence
			result.StrategyUsed = strategy.Name()
			result.Validation = verdict
			result.Alternatives = collectAlternates(candidates, i, rejected)

			f.store(req, result)
			log.Printf("[Finder] INFO: NIP %s found for '%s' via %s (confidence %.2f)",
				candidate.NIP, req.CompanyName, strategy.Name(), confidence)
			return result
		}
	}

	// Каскад исчерпан: негативный результат тоже кэшируется, чтобы не
	// повторять дорогой поиск в пределах TTL
	result.StrategyUsed = models.StrategyNone
	result.Alternatives = rejected
	f.store(req, result)
	log.Printf("[Finder] INFO: NIP not found for '%s' (%s)", req.CompanyName, req.City)
	return result
}

// fromCache возвращает результат из кэша или nil при промахе
func (f *Finder) fromCache(req models.NIPRequest) *models.NIPResult {
	entry, needsWarning, err := f.cache.Get(req.CompanyName, req.City)
	if err != nil {
		log.Printf("[Finder] WARN: cache lookup failed: %v", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	result := &models.NIPResult{
		CompanyName:  req.CompanyName,
		City:         req.City,
		Found:        entry.NIP != "",
		NIP:          entry.NIP,
		Confidence:   entry.Confidence,
		StrategyUsed: models.SearchStrategy(entry.Strategy),
		Validation:   models.ValidationFromJSON(entry.ValidationJSON),
		FromCache:    true,
		CacheAgeDays: entry.AgeDays(time.Now()),
	}
	if entry.NIP != "" {
		result.NIPFormatted = extractors.FormatNIP(entry.NIP)
	}
	if needsWarning {
		result.AddWarning(fmt.Sprintf("cached result is %d days old, consider re-resolving", result.CacheAgeDays))
	}
	log.Printf("[Finder] INFO: cache hit for '%s' (%s), age %d days", req.CompanyName, req.City, result.CacheAgeDays)
	return result
}

func (f *Finder) validate(ctx context.Context, req models.NIPRequest, candidate models.NIPCandidate, domain string) *models.ValidationResult {
	validationDomain := domain
	if validationDomain == "" {
		validationDomain = candidate.DiscoveredDomain
	}

	return f.validator.Validate(ctx, validation.ValidateInput{
		NIP:         candidate.NIP,
		CompanyName: req.CompanyName,
		City:        req.City,
		Domain:      validationDomain,
		SourceData: map[string]string{
			"found_name": candidate.CompanyNameFound,
			"source_url": candidate.SourceURL,
			"snippet":    candidate.SourceSnippet,
			"strategy":   string(candidate.Strategy),
		},
	})
}

// store записывает результат в кэш, включая негативный
func (f *Finder) store(req models.NIPRequest, result *models.NIPResult) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(req.CompanyName, req.City, result.NIP, result.Confidence,
		result.StrategyUsed, result.Validation.ToJSON()); err != nil {
		log.Printf("[Finder] WARN: cache write failed: %v", err)
	}
}

// collectAlternates собирает отклоненные кандидаты: ранее отвергнутые
// плюс еще не проверенные из текущего ответа стратегии
func collectAlternates(candidates []models.NIPCandidate, acceptedIdx int, rejected []models.NIPCandidate) []models.NIPCandidate {
	out := append([]models.NIPCandidate{}, rejected...)
	out = append(out, candidates[acceptedIdx+1:]...)
	if len(out) > 5 {
		out = out[:5]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
