package strategies

import (
	"context"
	"log"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/scraper"
)

const privacyConfidence = 0.95

// PrivacyScraper ищет NIP на страницах политики приватности и
// контактов фирмы. Юридические страницы обязаны содержать NIP,
// поэтому попадание дает высокий confidence.
type PrivacyScraper struct {
	fetcher PageFetcher
}

// NewPrivacyScraper создает стратегию обхода юридических страниц
func NewPrivacyScraper(fetcher PageFetcher) *PrivacyScraper {
	return &PrivacyScraper{fetcher: fetcher}
}

func (s *PrivacyScraper) Name() models.SearchStrategy {
	return models.StrategyPrivacyScraper
}

func (s *PrivacyScraper) Available() bool {
	return s.fetcher != nil
}

// Find обходит фиксированный каталог вариантов юридических URL.
// Работает только при известном домене.
func (s *PrivacyScraper) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	if domain == "" {
		return result
	}
	if !s.Available() {
		return result
	}

	normalized := scraper.NormalizeDomain(domain)
	for _, pageURL := range scraper.PrivacyURLs(normalized) {
		page, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			continue
		}

		result.ScrapedData = result.ScrapedData.Merge(page.ScrapedData(normalized))

		nips := extractors.ExtractNIPCandidates(page.FullText)
		if len(nips) == 0 {
			continue
		}

		log.Printf("[PrivacyScraper] INFO: NIP %s found on %s", nips[0], pageURL)
		result.Primary = &models.NIPCandidate{
			NIP:          nips[0],
			NIPFormatted: extractors.FormatNIP(nips[0]),
			Confidence:   privacyConfidence,
			Strategy:     models.StrategyPrivacyScraper,
			SourceURL:    pageURL,
		}
		for _, nip := range nips[1:min(len(nips), 6)] {
			result.Alternates = append(result.Alternates, models.NIPCandidate{
				NIP:          nip,
				NIPFormatted: extractors.FormatNIP(nip),
				Confidence:   privacyConfidence,
				Strategy:     models.StrategyPrivacyScraper,
				SourceURL:    pageURL,
			})
		}
		return result
	}

	log.Printf("[PrivacyScraper] INFO: no NIP on legal pages of %s", normalized)
	return result
}
