// Package scraper загружает и разбирает страницы фирм: политика
// приватности, главная страница, контакты. NIP ищется в тексте страниц,
// попутно собираются контактные данные.
package scraper

import (
	"regexp"
	"strings"
)

// Публичные почтовые провайдеры: домен из такого адреса не является
// доменом фирмы
var publicEmailDomains = map[string]struct{}{
	"gmail.com":    {},
	"outlook.com":  {},
	"hotmail.com":  {},
	"yahoo.com":    {},
	"interia.pl":   {},
	"onet.pl":      {},
	"wp.pl":        {},
	"o2.pl":        {},
	"poczta.pl":    {},
	"buziaczek.pl": {},
}

// Варианты путей политики приватности, от самых частых к редким
var privacyPathVariants = []string{
	"/polityka-prywatnosci",
	"/polityka-prywatności", // польское ś
	"/privacy-policy",
	"/rodo",
	"/polityka_prywatnosci",
	"/pl/polityka-prywatnosci",
	"/privacy",
	"/en/privacy-policy",
}

var (
	emailDomainRe = regexp.MustCompile(`^[^@\s]+@([^@\s]+)$`)
	protocolRe    = regexp.MustCompile(`^https?://`)
)

// ExtractEmailDomain извлекает домен из адреса email
func ExtractEmailDomain(email string) string {
	m := emailDomainRe.FindStringSubmatch(strings.TrimSpace(email))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// IsPublicEmailDomain проверяет, принадлежит ли домен публичному
// почтовому провайдеру
func IsPublicEmailDomain(domain string) bool {
	_, ok := publicEmailDomains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// CompanyDomainFromEmail извлекает домен фирмы из email. Адреса на
// публичных провайдерах дают пустую строку: к ним нечего скрапить.
func CompanyDomainFromEmail(email string) string {
	domain := ExtractEmailDomain(email)
	if domain == "" || IsPublicEmailDomain(domain) {
		return ""
	}
	return NormalizeDomain(domain)
}

// NormalizeDomain нормализует домен: lowercase, без протокола, без www,
// без хвостового слэша
func NormalizeDomain(domain string) string {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	normalized = protocolRe.ReplaceAllString(normalized, "")
	normalized = strings.TrimPrefix(normalized, "www.")
	// Отбрасываем путь, если передали полный URL
	if idx := strings.IndexByte(normalized, '/'); idx >= 0 {
		normalized = normalized[:idx]
	}
	return normalized
}

// PrivacyURLs возвращает полный каталог URL политики приватности для
// домена: каждый вариант пути с www и без
func PrivacyURLs(domain string) []string {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return nil
	}

	urls := make([]string, 0, len(privacyPathVariants)*2)
	for _, path := range privacyPathVariants {
		urls = append(urls, "https://"+domain+path)
		urls = append(urls, "https://www."+domain+path)
	}
	return urls
}

// HomepageURLs возвращает варианты URL главной страницы
func HomepageURLs(domain string) []string {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return nil
	}
	return []string{
		"https://" + domain,
		"https://www." + domain,
	}
}
