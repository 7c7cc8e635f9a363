package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"nipfinder/extractors"
	"nipfinder/models"
)

const defaultUserAgent = "NIPFinder/1.0 (compatible)"

// Page загруженная и разобранная страница
type Page struct {
	URL      string
	Doc      *goquery.Document
	FullText string
}

// Fetcher загружает страницы с фиксированным User-Agent и таймаутом.
// Редиректы сопровождаются, ошибки отдельных URL не фатальны для обхода.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// FetcherConfig конфигурация загрузчика страниц
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// NewFetcher создает загрузчик страниц
func NewFetcher(config FetcherConfig) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		userAgent: config.UserAgent,
	}
}

// Fetch загружает страницу и возвращает разобранный документ.
// Не-200 статус считается ошибкой.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, pageURL)
	}

	// Старые польские сайты иногда отдают ISO-8859-2 или windows-1250
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Page{
		URL:      pageURL,
		Doc:      doc,
		FullText: pageText(doc),
	}, nil
}

// FooterText возвращает текст футера страницы или пустую строку
func (p *Page) FooterText() string {
	footer := p.Doc.Find("footer").First()
	if footer.Length() == 0 {
		return ""
	}
	return normalizeSpace(footer.Text())
}

// Title возвращает заголовок страницы
func (p *Page) Title() string {
	return strings.TrimSpace(p.Doc.Find("title").First().Text())
}

// ScrapedData собирает контактные данные со страницы
func (p *Page) ScrapedData(domain string) *models.ScrapedCompanyData {
	return &models.ScrapedCompanyData{
		Domain:       domain,
		Emails:       extractors.ExtractEmails(p.FullText),
		Phones:       extractors.ExtractPhones(p.FullText),
		Addresses:    extractors.ExtractAddresses(p.FullText),
		SocialLinks:  socialLinksByPlatform(extractors.ExtractSocialLinks(p.Doc)),
		WebsiteTitle: p.Title(),
		SourceURLs:   []string{p.URL},
	}
}

// pageText извлекает видимый текст документа без скриптов и стилей
func pageText(doc *goquery.Document) string {
	clone := doc.Selection.Clone()
	clone.Find("script, style, noscript").Remove()
	return normalizeSpace(clone.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// socialLinksByPlatform раскладывает ссылки по платформам, первая
// ссылка платформы выигрывает
func socialLinksByPlatform(links []string) map[string]string {
	if len(links) == 0 {
		return nil
	}

	platforms := []string{"facebook", "instagram", "linkedin", "twitter", "youtube", "tiktok"}
	out := make(map[string]string)
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, platform := range platforms {
			if strings.Contains(lower, platform+".com") || (platform == "twitter" && strings.Contains(lower, "x.com")) {
				if _, exists := out[platform]; !exists {
					out[platform] = link
				}
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
