package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testPageHTML = `<html>
<head><title>Awodent - Stomatologia Warszawa</title></head>
<body>
	<script>var tracking = "000-000-00-00";</script>
	<main>
		<h1>Gabinet stomatologiczny Awodent</h1>
		<p>Kontakt: biuro@awodent.pl, tel. +48 500 600 700</p>
		<a href="https://www.facebook.com/awodent">Facebook</a>
	</main>
	<footer>
		Awodent Sp. z o.o., ul. Marszalkowska 10, 00-590 Warszawa, NIP: 123-456-78-02
	</footer>
</body>
</html>`

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(testPageHTML))
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{UserAgent: "TestAgent/1.0"})
	page, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotUA != "TestAgent/1.0" {
		t.Errorf("expected custom User-Agent, got %q", gotUA)
	}
	if page.Title() != "Awodent - Stomatologia Warszawa" {
		t.Errorf("unexpected title %q", page.Title())
	}
	if !strings.Contains(page.FullText, "NIP: 123-456-78-02") {
		t.Error("full text should contain the footer NIP")
	}
	// Содержимое <script> не должно попадать в видимый текст
	if strings.Contains(page.FullText, "tracking") {
		t.Error("script content leaked into page text")
	}
}

func TestFetcher_FetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{})
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestPage_FooterText(t *testing.T) {
	server := serveHTML(t, testPageHTML)

	fetcher := NewFetcher(FetcherConfig{})
	page, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	footer := page.FooterText()
	if !strings.Contains(footer, "NIP: 123-456-78-02") {
		t.Errorf("footer text should contain NIP, got %q", footer)
	}
	if strings.Contains(footer, "Gabinet stomatologiczny") {
		t.Error("footer text should not contain main content")
	}
}

func TestPage_FooterText_Missing(t *testing.T) {
	server := serveHTML(t, `<html><body><p>bez stopki</p></body></html>`)

	fetcher := NewFetcher(FetcherConfig{})
	page, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got := page.FooterText(); got != "" {
		t.Errorf("expected empty footer text, got %q", got)
	}
}

func TestPage_ScrapedData(t *testing.T) {
	server := serveHTML(t, testPageHTML)

	fetcher := NewFetcher(FetcherConfig{})
	page, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data := page.ScrapedData("awodent.pl")
	if data.Domain != "awodent.pl" {
		t.Errorf("unexpected domain %q", data.Domain)
	}
	if len(data.Emails) != 1 || data.Emails[0] != "biuro@awodent.pl" {
		t.Errorf("unexpected emails %v", data.Emails)
	}
	if len(data.Phones) != 1 || data.Phones[0] != "+48500600700" {
		t.Errorf("unexpected phones %v", data.Phones)
	}
	if data.SocialLinks["facebook"] != "https://www.facebook.com/awodent" {
		t.Errorf("unexpected social links %v", data.SocialLinks)
	}
	if data.WebsiteTitle == "" {
		t.Error("expected website title")
	}
}
