package strategies

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/normalization"
)

const (
	// Не больше трех вариантов запроса на один вызов
	maxSnippetQueries = 3

	snippetHighTrustConfidence = 0.95
	snippetBaseConfidence      = 0.70
)

// SnippetSearch ищет NIP в сниппетах поисковой выдачи, не загружая
// сами страницы. Самая дешевая из платных стратегий.
type SnippetSearch struct {
	search     Searcher
	identity   IdentityChecker
	maxResults int
}

// NewSnippetSearch создает стратегию поиска по сниппетам
func NewSnippetSearch(search Searcher, identity IdentityChecker) *SnippetSearch {
	return &SnippetSearch{
		search:     search,
		identity:   identity,
		maxResults: 10,
	}
}

func (s *SnippetSearch) Name() models.SearchStrategy {
	return models.StrategySnippetSearch
}

func (s *SnippetSearch) Available() bool {
	return s.search != nil
}

// Find перебирает варианты запросов и сканирует заголовки и описания
// результатов. Кандидаты с чужих агрегаторов отбрасываются, кандидаты
// с каталогов KRS/GUS получают повышенный confidence.
func (s *SnippetSearch) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	if !s.Available() {
		log.Printf("[SnippetSearch] INFO: search engine not configured, strategy disabled")
		return result
	}

	queries := buildSnippetQueries(companyName, city)
	log.Printf("[SnippetSearch] INFO: trying %d query variants for '%s'", len(queries), companyName)

	var candidates []models.NIPCandidate
	seen := make(map[string]struct{})
	rejected := make(map[string]struct{})

	for i, query := range queries {
		resp, err := s.search.Search(ctx, query, s.maxResults)
		result.CostUSD += searchCostPerQuery
		if err != nil {
			log.Printf("[SnippetSearch] WARN: query %d/%d failed: %v", i+1, len(queries), err)
			continue
		}

		for _, item := range resp.Results {
			if isBlacklistedURL(item.URL) {
				continue
			}

			text := item.Title + " " + item.Description
			for _, nip := range extractors.ExtractNIPCandidates(text) {
				if _, ok := seen[nip]; ok {
					continue
				}
				if _, ok := rejected[nip]; ok {
					continue
				}

				matchScore := normalization.StrictNameMatch(companyName, text)
				if matchScore < preFilterThreshold {
					log.Printf("[SnippetSearch] INFO: pre-filter reject NIP %s, name match %.2f", nip, matchScore)
					rejected[nip] = struct{}{}
					continue
				}

				if matchScore < skipIdentityThreshold && s.identity != nil && s.identity.Available() {
					verdict := s.identity.ValidateCompanyIdentity(ctx, companyName, city, nip, map[string]string{
						"title":       item.Title,
						"description": item.Description,
						"url":         item.URL,
						"query":       query,
					})
					if !verdict.Valid || verdict.Confidence < skipIdentityThreshold {
						log.Printf("[SnippetSearch] INFO: identity check rejected NIP %s: %s", nip, verdict.Reasoning)
						rejected[nip] = struct{}{}
						continue
					}
				}

				confidence := snippetBaseConfidence
				if isHighTrustURL(item.URL) {
					confidence = snippetHighTrustConfidence
				}

				candidate := models.NIPCandidate{
					NIP:           nip,
					NIPFormatted:  extractors.FormatNIP(nip),
					Confidence:    confidence,
					Strategy:      models.StrategySnippetSearch,
					SourceURL:     item.URL,
					SourceSnippet: truncateSnippet(item.Description),
					SourceQuery:   query,
				}
				if domain == "" {
					candidate.DiscoveredDomain = hostOf(item.URL)
				}

				seen[nip] = struct{}{}
				candidates = append(candidates, candidate)
				log.Printf("[SnippetSearch] INFO: candidate NIP %s from %s, confidence %.2f", nip, item.URL, confidence)
			}
		}

		if hasHighConfidence(candidates) {
			log.Printf("[SnippetSearch] INFO: high-confidence candidate found, stopping after variant %d", i+1)
			break
		}
	}

	if len(candidates) == 0 {
		log.Printf("[SnippetSearch] INFO: no candidates for '%s'", companyName)
		return result
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	result.Primary = &candidates[0]
	if len(candidates) > 1 {
		result.Alternates = candidates[1:min(len(candidates), 6)]
	}
	return result
}

// buildSnippetQueries собирает до трех вариантов запроса: точное
// название с городом, точное название, базовое название без
// родовых слов.
func buildSnippetQueries(companyName, city string) []string {
	var queries []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || len(queries) >= maxSnippetQueries {
			return
		}
		for _, existing := range queries {
			if existing == q {
				return
			}
		}
		queries = append(queries, q)
	}

	if city != "" {
		add(fmt.Sprintf(`"%s" "%s" NIP`, companyName, city))
	}
	add(fmt.Sprintf(`"%s" NIP`, companyName))

	if base := normalization.ExtractBaseName(companyName); base != "" && base != strings.ToLower(companyName) {
		add(base + " NIP")
	}
	add(companyName + " NIP")

	return queries
}

func hasHighConfidence(candidates []models.NIPCandidate) bool {
	for _, c := range candidates {
		if c.Confidence >= earlyExitConfidence {
			return true
		}
	}
	return false
}

// truncateSnippet обрезает сниппет по границе руны, польские буквы
// не разрываются
func truncateSnippet(s string) string {
	const maxLen = 200
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
