// Package validation реализует трехуровневую проверку кандидата NIP:
// контрольная сумма, привязка к домену, семантическая идентичность.
package validation

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"nipfinder/normalization"
	"nipfinder/scraper"
)

// Порталы и реестры: NIP на таких доменах принадлежит чужим фирмам,
// проверка привязки к домену не имеет смысла
var registryDomains = map[string]struct{}{
	// Каталоги фирм и отзывы
	"gowork.pl":        {},
	"oferteo.pl":       {},
	"aleo.com":         {},
	"panoramafirm.pl":  {},
	"pkt.pl":           {},
	"firmy.net":        {},
	"baza-firm.com.pl": {},
	"owg.pl":           {},
	"hipokrates.org":   {},
	"medigo.pl":        {},
	// Реестры KRS/NIP
	"krs-online.com.pl": {},
	"rejestr.io":        {},
	"infoveriti.pl":     {},
	"krs.pl":            {},
	"ceidg.gov.pl":      {},
	"mojepanstwo.pl":    {},
	"biznes-polska.pl":  {},
	"companywall.pl":    {},
	"regon.stat.gov.pl": {},
	// Бизнес-порталы
	"businessinsight.pl": {},
	"okredo.com":         {},
	"dun.com":            {},
	"bisnode.pl":         {},
	"emis.com":           {},
	"firmypolskie.pl":    {},
	// Социальные сети, карты, отзывы
	"facebook.com":    {},
	"linkedin.com":    {},
	"google.com":      {},
	"google.pl":       {},
	"znany.pl":        {},
	"znanylekarz.pl":  {},
	"znamylekarza.pl": {},
	"trustpilot.com":  {},
	"yelp.com":        {},
	// Государственные порталы
	"gov.pl":      {},
	"stat.gov.pl": {},
}

// DomainValidator проверяет присутствие NIP на сайте фирмы
type DomainValidator struct {
	httpClient *http.Client
	userAgent  string
}

// DomainValidatorConfig конфигурация проверки домена
type DomainValidatorConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// NewDomainValidator создает валидатор домена
func NewDomainValidator(config DomainValidatorConfig) *DomainValidator {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "NIPFinder/1.0 (compatible)"
	}

	return &DomainValidator{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		userAgent: config.UserAgent,
	}
}

// IsRegistryDomain распознает домены, на которых проверка привязки NIP
// бессмысленна: известные порталы-каталоги и домены, явно не
// соответствующие названию фирмы.
func IsRegistryDomain(domain, companyName string) bool {
	normalized := scraper.NormalizeDomain(domain)
	if normalized == "" {
		return false
	}

	for registry := range registryDomains {
		if normalized == registry || strings.HasSuffix(normalized, "."+registry) {
			return true
		}
	}

	// Домен, не похожий на название фирмы, скорее всего портал
	if companyName != "" && !normalization.MatchesDomainBase(companyName, normalized) {
		return true
	}

	return false
}

// CheckDomain проверяет, опубликован ли NIP на сайте домена. Обходит
// фиксированный набор страниц (главная, политика приватности, контакты,
// с www и без) и ищет NIP в сыром, дефисном и пробельном написании.
// nil означает, что проверка пропущена (registry-домен).
func (v *DomainValidator) CheckDomain(ctx context.Context, nip, domain, companyName string) *bool {
	if IsRegistryDomain(domain, companyName) {
		log.Printf("[DomainValidator] Skipping registry/portal domain %s", domain)
		return nil
	}

	normalized := scraper.NormalizeDomain(domain)
	urls := []string{
		"https://" + normalized,
		"https://www." + normalized,
		"https://" + normalized + "/polityka-prywatnosci",
		"https://www." + normalized + "/polityka-prywatnosci",
		"https://" + normalized + "/kontakt",
		"https://www." + normalized + "/kontakt",
	}

	forms := nipSpellings(nip)

	found := false
	for _, pageURL := range urls {
		body, err := v.fetchBody(ctx, pageURL)
		if err != nil {
			continue
		}

		for _, form := range forms {
			if strings.Contains(body, form) {
				log.Printf("[DomainValidator] NIP %s found on %s", nip, pageURL)
				found = true
				return &found
			}
		}
	}

	log.Printf("[DomainValidator] NIP %s NOT found on domain %s", nip, domain)
	return &found
}

// fetchBody загружает страницу и возвращает тело как строку
func (v *DomainValidator) fetchBody(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// nipSpellings возвращает написания NIP, встречающиеся на сайтах:
// слитно, через дефисы и через пробелы
func nipSpellings(nip string) []string {
	if len(nip) != 10 {
		return []string{nip}
	}
	return []string{
		nip,
		nip[0:3] + "-" + nip[3:6] + "-" + nip[6:8] + "-" + nip[8:10],
		nip[0:3] + " " + nip[3:6] + " " + nip[6:8] + " " + nip[8:10],
	}
}
