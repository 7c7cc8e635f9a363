package strategies

import (
	"context"
	"log"

	"nipfinder/extractors"
	"nipfinder/models"
	"nipfinder/normalization"
)

const (
	// Минимальное сходство названия для принятия записи реестра
	gusMatchThreshold = 0.70

	// Бонус к score при совпадении города
	gusCityBonus = 0.2
)

// GUSSearch ищет NIP в государственном реестре GUS REGON.
// Авторитетный источник: принятый кандидат получает confidence 1.0.
type GUSSearch struct {
	client RegistrySearcher
}

// NewGUSSearch создает стратегию поиска по реестру
func NewGUSSearch(client RegistrySearcher) *GUSSearch {
	return &GUSSearch{client: client}
}

func (s *GUSSearch) Name() models.SearchStrategy {
	return models.StrategyGUSSearch
}

func (s *GUSSearch) Available() bool {
	return s.client != nil && s.client.HasCredentials()
}

// Find запрашивает реестр по названию и отбирает записи по строгому
// сходству названия с бонусом за совпадение города.
func (s *GUSSearch) Find(ctx context.Context, companyName, city, domain string) *Result {
	result := &Result{}

	if !s.Available() {
		log.Printf("[GUSSearch] INFO: registry credentials not configured, strategy disabled")
		return result
	}

	companies, err := s.client.SearchByName(ctx, companyName)
	if err != nil {
		log.Printf("[GUSSearch] WARN: registry search failed for '%s': %v", companyName, err)
		return result
	}
	if len(companies) == 0 {
		log.Printf("[GUSSearch] INFO: no registry entries for '%s'", companyName)
		return result
	}

	normalizedCity := normalization.NormalizeCity(city)

	bestScore := 0.0
	bestIdx := -1
	scores := make([]float64, len(companies))
	for i, company := range companies {
		if !extractors.ValidateNIPChecksum(company.NIP) {
			log.Printf("[GUSSearch] WARN: registry returned NIP with bad checksum: %s", company.NIP)
			continue
		}

		score := normalization.StrictNameMatch(companyName, company.Name)
		if normalizedCity != "" && normalization.NormalizeCity(company.City) == normalizedCity {
			score += gusCityBonus
		}
		scores[i] = score

		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < gusMatchThreshold {
		log.Printf("[GUSSearch] INFO: best registry match score %.2f below threshold %.2f for '%s'",
			bestScore, gusMatchThreshold, companyName)
		return result
	}

	best := companies[bestIdx]
	log.Printf("[GUSSearch] INFO: accepted registry entry '%s' (NIP %s, score %.2f)",
		best.Name, best.NIP, bestScore)

	result.Primary = &models.NIPCandidate{
		NIP:              best.NIP,
		NIPFormatted:     extractors.FormatNIP(best.NIP),
		Confidence:       1.0,
		Strategy:         models.StrategyGUSSearch,
		CompanyNameFound: best.Name,
	}

	// Остальные записи выше порога становятся альтернативами
	for i, company := range companies {
		if i == bestIdx || scores[i] < gusMatchThreshold {
			continue
		}
		if len(result.Alternates) >= 5 {
			break
		}
		result.Alternates = append(result.Alternates, models.NIPCandidate{
			NIP:              company.NIP,
			NIPFormatted:     extractors.FormatNIP(company.NIP),
			Confidence:       min(scores[i], 0.99),
			Strategy:         models.StrategyGUSSearch,
			CompanyNameFound: company.Name,
		})
	}

	return result
}
