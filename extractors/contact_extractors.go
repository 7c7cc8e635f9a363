package extractors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

	// Польские телефоны: +48 123 456 789, 123-456-789, (22) 123 45 67
	phoneRe = regexp.MustCompile(`(?:\+48[\s\-]?)?(?:\(\d{2}\)[\s\-]?)?\d{2,3}[\s\-]?\d{2,3}[\s\-]?\d{2,3}(?:[\s\-]?\d{2})?`)

	// Польский почтовый индекс с улицей: "ul. Marszałkowska 1, 00-001 Warszawa"
	addressRe = regexp.MustCompile(`(?i)(?:ul\.|al\.|pl\.|os\.)\s*[\p{L}0-9\s.\-/]{3,60}?,?\s*\d{2}-\d{3}\s+\p{L}[\p{L}\s\-]{2,40}`)

	phoneCleanRe = regexp.MustCompile(`[\s\-()]`)

	socialHosts = []string{
		"facebook.com",
		"instagram.com",
		"linkedin.com",
		"twitter.com",
		"x.com",
		"youtube.com",
		"tiktok.com",
	}
)

// ExtractEmails возвращает уникальные email-адреса из текста
func ExtractEmails(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range emailRe.FindAllString(text, -1) {
		email := strings.ToLower(m)
		// Артефакты верстки вроде image@2x.png не являются адресами
		if strings.HasSuffix(email, ".png") || strings.HasSuffix(email, ".jpg") || strings.HasSuffix(email, ".svg") {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// ExtractPhones возвращает уникальные телефоны из текста в нормализованной
// форме +48XXXXXXXXX. Последовательности, не похожие на польский номер
// (9 цифр после кода страны), отбрасываются.
func ExtractPhones(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := phoneCleanRe.ReplaceAllString(m, "")
		digits = strings.TrimPrefix(digits, "+48")
		digits = strings.TrimPrefix(digits, "48")
		if len(digits) != 9 {
			continue
		}
		normalized := "+48" + digits
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// ExtractAddresses возвращает почтовые адреса (улица + индекс + город)
func ExtractAddresses(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range addressRe.FindAllString(text, -1) {
		addr := strings.TrimSpace(m)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// ExtractSocialLinks собирает ссылки на соцсети из атрибутов href документа
func ExtractSocialLinks(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if !isSocialLink(href) {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		out = append(out, href)
	})
	return out
}

// ExtractSocialLinksFromText собирает ссылки на соцсети из сырого текста
func ExtractSocialLinksFromText(text string) []string {
	if text == "" {
		return nil
	}

	urlRe := regexp.MustCompile(`https?://[^\s"'<>]+`)
	seen := make(map[string]struct{})
	var out []string
	for _, m := range urlRe.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;)")
		if !isSocialLink(m) {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func isSocialLink(href string) bool {
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	for _, host := range socialHosts {
		if strings.Contains(lower, host+"/") || strings.HasSuffix(lower, host) {
			return true
		}
	}
	return false
}
