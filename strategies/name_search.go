package strategies

import (
	"context"
	"fmt"
	"log"
	"strings"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/normalization"
)

// Кандидаты без подтверждения доменом не заслуживают большего
const nameSearchConfidenceCap = 0.50

const nameSearchWarning = "no domain corroboration, manual review required"

// NameSearch последняя ступень каскада: поиск по одному лишь названию
// без подтверждения доменом. Confidence жестко ограничен 0.50, каждый
// результат помечается для ручной проверки.
type NameSearch struct {
	search     Searcher
	identity   IdentityChecker
	maxResults int
}

// NewNameSearch создает стратегию поиска по названию
func NewNameSearch(search Searcher, identity IdentityChecker) *NameSearch {
	return &NameSearch{
		search:     search,
		identity:   identity,
		maxResults: 10,
	}
}

func (s *NameSearch) Name() models.SearchStrategy {
	return models.StrategyNameSearch
}

func (s *NameSearch) Available() bool {
	return s.search != nil
}

func (s *NameSearch) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	if !s.Available() {
		log.Printf("[NameSearch] INFO: search engine not configured, strategy disabled")
		return result
	}

	queries := buildNameQueries(companyName, city)
	log.Printf("[NameSearch] INFO: last resort search for '%s', %d query variants", companyName, len(queries))

	var candidates []models.NIPCandidate
	seen := make(map[string]struct{})
	rejected := make(map[string]struct{})

	for i, query := range queries {
		resp, err := s.search.Search(ctx, query, s.maxResults)
		result.CostUSD += searchCostPerQuery
		if err != nil {
			log.Printf("[NameSearch] WARN: query %d/%d failed: %v", i+1, len(queries), err)
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
						log.Printf("[NameSearch] INFO: identity check rejected NIP %s: %s", nip, verdict.Reasoning)
						rejected[nip] = struct{}{}
						continue
					}
				}

				seen[nip] = struct{}{}
				candidates = append(candidates, models.NIPCandidate{
					NIP:           nip,
					NIPFormatted:  extractors.FormatNIP(nip),
					Confidence:    nameSearchConfidenceCap,
					Strategy:      models.StrategyNameSearch,
					SourceURL:     item.URL,
					SourceSnippet: truncateSnippet(item.Description),
					SourceQuery:   query,
				})
				log.Printf("[NameSearch] INFO: candidate NIP %s from %s", nip, item.URL)
			}
		}

		// Первый найденный кандидат останавливает перебор: дальнейшие
		// запросы не поднимут confidence выше потолка
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		log.Printf("[NameSearch] INFO: no candidates for '%s'", companyName)
		return result
	}

	result.Primary = &candidates[0]
	if len(candidates) > 1 {
		result.Alternates = candidates[1:min(len(candidates), 6)]
	}
	result.Warnings = append(result.Warnings, nameSearchWarning)
	return result
}

// buildNameQueries собирает варианты запроса от самого точного к
// самому широкому: полное название с городом и без, базовое название
// с городом и без.
func buildNameQueries(companyName, city string) []string {
	var queries []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
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
		add(fmt.Sprintf(`"%s" "%s"`, companyName, city))
	}
	add(fmt.Sprintf(`"%s"`, companyName))

	if base := normalization.ExtractBaseName(companyName); base != "" && base != strings.ToLower(companyName) {
		if city != "" {
			add(base + " " + city)
		}
		add(base)
	}

	return queries
}
