package classification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"nipfinder/websearch"
)

// Домен принимается только при уверенности классификатора не ниже порога
const domainConfidenceThreshold = 0.7

const maxResultsInPrompt = 10

// DomainDiscovery выбор официального домена фирмы из поисковой выдачи
type DomainDiscovery struct {
	client *GeminiClient
}

// NewDomainDiscovery создает discovery поверх клиента классификатора
func NewDomainDiscovery(client *GeminiClient) *DomainDiscovery {
	return &DomainDiscovery{client: client}
}

// Available сообщает, доступен ли подбор домена
func (d *DomainDiscovery) Available() bool {
	return d.client != nil && d.client.Available()
}

type domainVerdict struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// DiscoverDomain выбирает домен фирмы из результатов поиска.
// Возвращает пустую строку, когда классификатор недоступен, не уверен
// или не нашел подходящего домена. Неуверенность не является ошибкой.
func (d *DomainDiscovery) DiscoverDomain(ctx context.Context, companyName, city string, results []websearch.SearchItem) (string, error) {
	if !d.Available() {
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}

	prompt := buildDomainPrompt(companyName, city, results)

	text, err := d.client.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("domain discovery failed: %w", err)
	}

	var verdict domainVerdict
	if err := parseModelJSON(text, &verdict); err != nil {
		log.Printf("[Classifier] ERROR: unparseable domain response for '%s': %v", companyName, err)
		return "", nil
	}

	domain := strings.TrimSpace(verdict.Domain)
	// Модель может вернуть литеральную строку "null"
	if domain == "" || strings.EqualFold(domain, "null") {
		return "", nil
	}
	if verdict.Confidence < domainConfidenceThreshold {
		log.Printf("[Classifier] Domain discovery: low confidence %.2f for '%s', ignoring %s",
			verdict.Confidence, companyName, domain)
		return "", nil
	}

	log.Printf("[Classifier] Domain discovery: '%s' -> %s (confidence=%.2f)",
		companyName, domain, verdict.Confidence)
	return domain, nil
}

func buildDomainPrompt(companyName, city string, results []websearch.SearchItem) string {
	if city == "" {
		city = "unknown"
	}

	var resultsText strings.Builder
	for i, r := range results {
		if i >= maxResultsInPrompt {
			break
		}
		fmt.Fprintf(&resultsText, "\n%d. URL: %s\n   Title: %s\n   Description: %s\n",
			i+1, r.URL, r.Title, r.Description)
	}

	var b strings.Builder
	b.WriteString("Analyze these search results and identify the official company domain.\n\n")
	fmt.Fprintf(&b, "Company: %s\nCity: %s\n\n", companyName, city)
	fmt.Fprintf(&b, "Search Results:\n%s\n", resultsText.String())
	fmt.Fprintf(&b, "\nTask:\nFind the domain (website) that belongs to THIS specific company %q in %s.\n", companyName, city)
	b.WriteString(`
Rules:
- Look for exact company name match in URL or title
- Prefer .pl domains for Polish companies
- Ignore: portals (e.g. znanylekarz.pl), directories, social media, maps
- Ignore: companies with similar names but different locations
- Return null if uncertain

Return JSON with ONLY these fields:
{
    "domain": "company-domain.pl or null",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation"
}

Important: Return ONLY valid JSON, no additional text.`)
	return b.String()
}
