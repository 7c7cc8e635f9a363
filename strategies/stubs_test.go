package strategies

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"nipfinder/classification"
	"nipfinder/registry"
	"nipfinder/scraper"
	"nipfinder/websearch"
)

// Проверочные NIP с корректной контрольной суммой
const (
	validNIP1 = "1234567802"
	validNIP2 = "5260250274"
)

type stubRegistry struct {
	companies   []registry.Company
	err         error
	credentials bool
	calls       int
}

func (s *stubRegistry) HasCredentials() bool { return s.credentials }

func (s *stubRegistry) SearchByName(ctx context.Context, name string) ([]registry.Company, error) {
	s.calls++
	return s.companies, s.err
}

type stubSearcher struct {
	// Результаты отдаются по порядку запросов, последний набор
	// повторяется для лишних запросов
	responses [][]websearch.SearchItem
	err       error
	queries   []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, count int) (*websearch.SearchResponse, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.queries) - 1
	var results []websearch.SearchItem
	if len(s.responses) > 0 {
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		results = s.responses[idx]
	}
	return &websearch.SearchResponse{
		Query:     query,
		Results:   results,
		Timestamp: time.Now(),
	}, nil
}

type stubIdentity struct {
	verdict classification.IdentityVerdict
	calls   int
}

func (s *stubIdentity) Available() bool { return true }

func (s *stubIdentity) ValidateCompanyIdentity(ctx context.Context, companyName, city, nip string, sourceData map[string]string) classification.IdentityVerdict {
	s.calls++
	return s.verdict
}

type stubFetcher struct {
	pages map[string]string // URL -> HTML
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, pageURL string) (*scraper.Page, error) {
	s.calls++
	html, ok := s.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("unexpected status code 404 for %s", pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &scraper.Page{
		URL:      pageURL,
		Doc:      doc,
		FullText: strings.Join(strings.Fields(doc.Text()), " "),
	}, nil
}

func mustFind(t *testing.T, s Strategy, name, city, domain string) *Result {
	t.Helper()
	result := s.Find(context.Background(), name, city, domain)
	if result == nil {
		t.Fatalf("%s returned nil result", s.Name())
	}
	return result
}
