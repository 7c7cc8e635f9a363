package strategies

import (
	"context"
	"fmt"
	"log"
	"strings"

	"nipfinder/models"
	"nipfinder/websearch"
)

// DomainClassifier контракт классификатора, выбирающего официальный
// домен фирмы из поисковой выдачи
type DomainClassifier interface {
	Available() bool
	DiscoverDomain(ctx context.Context, companyName, city string, results []websearch.SearchItem) (string, error)
}

// DomainDiscovery находит официальный домен фирмы через поисковую
// выдачу и классификатор, после чего повторно запускает стратегии
// скрапинга с найденным доменом. Работает только когда домен неизвестен.
type DomainDiscovery struct {
	search     Searcher
	classifier DomainClassifier
	scrapers   []Strategy
	maxResults int
}

// NewDomainDiscovery создает стратегию поиска домена.
// scrapers перечисляются в порядке приоритета, обычно юридические
// страницы перед главной.
func NewDomainDiscovery(search Searcher, classifier DomainClassifier, scrapers ...Strategy) *DomainDiscovery {
	return &DomainDiscovery{
		search:     search,
		classifier: classifier,
		scrapers:   scrapers,
		maxResults: 10,
	}
}

func (s *DomainDiscovery) Name() models.SearchStrategy {
	return models.StrategyDomainDiscovery
}

func (s *DomainDiscovery) Available() bool {
	return s.search != nil && s.classifier != nil && s.classifier.Available()
}

func (s *DomainDiscovery) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	// Стратегия имеет смысл только без известного домена
	if domain != "" {
		return result
	}
	if !s.Available() {
		log.Printf("[DomainDiscovery] INFO: search engine or classifier not configured, strategy disabled")
		return result
	}

	query := strings.TrimSpace(fmt.Sprintf("%s %s oficjalna strona", companyName, city))
	resp, err := s.search.Search(ctx, query, s.maxResults)
	result.CostUSD += searchCostPerQuery
	if err != nil {
		log.Printf("[DomainDiscovery] WARN: search failed for '%s': %v", companyName, err)
		return result
	}
	if len(resp.Results) == 0 {
		log.Printf("[DomainDiscovery] INFO: no search results for '%s'", companyName)
		return result
	}

	discovered, err := s.classifier.DiscoverDomain(ctx, companyName, city, resp.Results)
	if err != nil {
		log.Printf("[DomainDiscovery] WARN: domain classification failed: %v", err)
		return result
	}
	if discovered == "" {
		log.Printf("[DomainDiscovery] INFO: classifier did not pick a domain for '%s'", companyName)
		return result
	}

	log.Printf("[DomainDiscovery] INFO: discovered domain %s for '%s', re-running scrapers", discovered, companyName)

	for _, scraperStrategy := range s.scrapers {
		sub := scraperStrategy.Find(ctx, companyName, city, discovered)
		result.CostUSD += sub.CostUSD
		result.Warnings = append(result.Warnings, sub.Warnings...)
		result.ScrapedData = result.ScrapedData.Merge(sub.ScrapedData)

		if !sub.Found() {
			continue
		}

		primary := *sub.Primary
		primary.Strategy = models.StrategyDomainDiscovery
		primary.DiscoveredDomain = discovered
		result.Primary = &primary

		for _, alt := range sub.Alternates {
			alt.Strategy = models.StrategyDomainDiscovery
			alt.DiscoveredDomain = discovered
			result.Alternates = append(result.Alternates, alt)
		}
		return result
	}

	log.Printf("[DomainDiscovery] INFO: no NIP on discovered domain %s", discovered)
	return result
}
