package strategies

import (
	"context"
	"log"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/scraper"
)

const (
	footerConfidence   = 0.85
	anywhereConfidence = 0.75
)

// HomepageScraper ищет NIP на главной странице сайта фирмы.
// Попадание в футере надежнее, чем где угодно на странице: в тексте
// статей встречаются NIP контрагентов и партнеров.
type HomepageScraper struct {
	fetcher PageFetcher
}

// NewHomepageScraper создает стратегию обхода главной страницы
func NewHomepageScraper(fetcher PageFetcher) *HomepageScraper {
	return &HomepageScraper{fetcher: fetcher}
}

func (s *HomepageScraper) Name() models.SearchStrategy {
	return models.StrategyHomepageScraper
}

func (s *HomepageScraper) Available() bool {
	return s.fetcher != nil
}

// Find загружает варианты главной страницы и ищет NIP сначала в
// футере, потом в полном тексте. Работает только при известном домене.
func (s *HomepageScraper) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	if domain == "" {
		return result
	}
	if !s.Available() {
		return result
	}

	normalized := scraper.NormalizeDomain(domain)
	for _, pageURL := range scraper.HomepageURLs(normalized) {
		page, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			continue
		}

		result.ScrapedData = result.ScrapedData.Merge(page.ScrapedData(normalized))

		confidence := footerConfidence
		nips := extractors.ExtractNIPCandidates(page.FooterText())
		if len(nips) == 0 {
			nips = extractors.ExtractNIPCandidates(page.FullText)
			if len(nips) == 0 {
				continue
			}
			confidence = anywhereConfidence
			result.Warnings = append(result.Warnings,
				"NIP found outside the page footer, manual review recommended")
		}

		log.Printf("[HomepageScraper] INFO: NIP %s found on %s (confidence %.2f)", nips[0], pageURL, confidence)
		result.Primary = &models.NIPCandidate{
			NIP:          nips[0],
			NIPFormatted: extractors.FormatNIP(nips[0]),
			Confidence:   confidence,
			Strategy:     models.StrategyHomepageScraper,
			SourceURL:    pageURL,
		}
		for _, nip := range nips[1:min(len(nips), 6)] {
			result.Alternates = append(result.Alternates, models.NIPCandidate{
				NIP:          nip,
				NIPFormatted: extractors.FormatNIP(nip),
				Confidence:   confidence,
				Strategy:     models.StrategyHomepageScraper,
				SourceURL:    pageURL,
			})
		}
		return result
	}

	log.Printf("[HomepageScraper] INFO: no NIP on homepage of %s", normalized)
	return result
}
