package strategies

import (
	"context"
	"net/url"
	"strings"

	"nipfinder/classification"
	"nipfinder/models"
	"nipfinder/registry"
	"nipfinder/scraper"
	"nipfinder/websearch"
)

const (
	// Каскад останавливается, как только кандидат достигает этого порога
	earlyExitConfidence = 0.90

	// Минимальный score совпадения названия до дорогой семантической проверки
	preFilterThreshold = 0.5

	// При score выше этого порога семантическая проверка не нужна
	skipIdentityThreshold = 0.7

	// Стоимость одного платного поискового запроса
	searchCostPerQuery = 0.005
)

// Strategy единый контракт стратегии поиска NIP.
// Find никогда не возвращает ошибку: ожидаемые сбои (нет результата,
// сетевая ошибка, отсутствие учетных данных) дают пустой Result и
// логируются внутри стратегии.
type Strategy interface {
	Name() models.SearchStrategy
	Available() bool
	Find(ctx context.Context, companyName, city, domain string) *Result
}

// Result результат одного вызова стратегии. Стоимость учитывается
// независимо от исхода: неудачный платный запрос все равно стоит денег.
type Result struct {
	Primary     *models.NIPCandidate
	Alternates  []models.NIPCandidate
	CostUSD     float64
	Warnings    []string
	ScrapedData *models.ScrapedCompanyData
}

// Found сообщает, дала ли стратегия первичного кандидата
func (r *Result) Found() bool {
	return r != nil && r.Primary != nil
}

// Searcher контракт поискового движка
type Searcher interface {
	Search(ctx context.Context, query string, count int) (*websearch.SearchResponse, error)
}

// RegistrySearcher контракт государственного реестра фирм
type RegistrySearcher interface {
	HasCredentials() bool
	SearchByName(ctx context.Context, name string) ([]registry.Company, error)
}

// IdentityChecker контракт семантической проверки соответствия фирмы
type IdentityChecker interface {
	Available() bool
	ValidateCompanyIdentity(ctx context.Context, companyName, city, nip string, sourceData map[string]string) classification.IdentityVerdict
}

// PageFetcher контракт загрузчика страниц
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scraper.Page, error)
}

// Агрегаторы, в сниппетах которых NIP принадлежит ЧУЖОЙ фирме
// (магазину, продавцу, площадке), а не искомой. Каталоги фирм
// (aleo.com, rejestr.io) сюда не входят: их NIP корректны.
var blacklistedSnippetDomains = []string{
	"wyjatkowyprezent.pl", "prezentmarzen.pl", "groupon.pl", "groupon.com",
	"allegro.pl", "olx.pl", "ceneo.pl",
	"facebook.com", "instagram.com", "linkedin.com", "twitter.com",
	"youtube.com", "tiktok.com",
	"tripadvisor.pl", "tripadvisor.com", "booking.com", "yelp.com",
	"wikipedia.org", "maps.google.com",
}

// Каталоги, берущие данные напрямую из KRS/GUS. NIP из их сниппетов
// заслуживает повышенного доверия.
var highTrustDomains = []string{
	"aleo.com", "rejestr.io", "krs-online.com.pl", "infoveriti.pl",
	"panoramafirm.pl", "krs.pl", "regon.stat.gov.pl",
}

func isBlacklistedURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, domain := range blacklistedSnippetDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func isHighTrustURL(rawURL string) bool {
	host := hostOf(rawURL)
	for _, domain := range highTrustDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// hostOf возвращает хост URL без префикса www
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
