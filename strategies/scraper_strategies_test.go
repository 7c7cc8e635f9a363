package strategies

import (
	"testing"
)

func TestPrivacyScraper_FindsNIPOnLegalPage(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://awodent.pl/polityka-prywatnosci": `<html><head><title>Polityka prywatności</title></head>
			<body><p>Administratorem danych jest Awodent Sp. z o.o., NIP: 123-456-78-02,
			ul. Długa 5, 50-001 Wrocław, kontakt: biuro@awodent.pl</p></body></html>`,
	}}
	s := NewPrivacyScraper(fetcher)

	result := mustFind(t, s, "Awodent", "Wrocław", "awodent.pl")

	if !result.Found() {
		t.Fatal("expected NIP from the privacy page")
	}
	if result.Primary.NIP != validNIP1 {
		t.Errorf("expected NIP %s, got %s", validNIP1, result.Primary.NIP)
	}
	if result.Primary.Confidence != 0.95 {
		t.Errorf("legal page hit must carry confidence 0.95, got %.2f", result.Primary.Confidence)
	}
	if result.Primary.SourceURL != "https://awodent.pl/polityka-prywatnosci" {
		t.Errorf("unexpected source URL %s", result.Primary.SourceURL)
	}
	if result.ScrapedData == nil || len(result.ScrapedData.Emails) == 0 {
		t.Error("expected contact data collected from the page")
	}
}

func TestPrivacyScraper_NoDomainIsANoop(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewPrivacyScraper(fetcher)

	result := mustFind(t, s, "Awodent", "", "")
	if result.Found() || fetcher.calls != 0 {
		t.Errorf("strategy must not fetch anything without a domain, calls=%d", fetcher.calls)
	}
}

func TestPrivacyScraper_AllPagesMissing(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewPrivacyScraper(fetcher)

	result := mustFind(t, s, "Awodent", "", "awodent.pl")
	if result.Found() {
		t.Error("expected a miss when no legal page exists")
	}
	if fetcher.calls == 0 {
		t.Error("expected the URL catalogue to be tried")
	}
}

func TestHomepageScraper_FooterHit(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://awodent.pl": `<html><body>
			<main>Zapraszamy do naszego gabinetu we Wrocławiu.</main>
			<footer>Awodent Sp. z o.o. | NIP: 123-456-78-02 | ul. Długa 5</footer>
			</body></html>`,
	}}
	s := NewHomepageScraper(fetcher)

	result := mustFind(t, s, "Awodent", "", "awodent.pl")

	if !result.Found() {
		t.Fatal("expected NIP from the footer")
	}
	if result.Primary.Confidence != 0.85 {
		t.Errorf("footer hit must carry confidence 0.85, got %.2f", result.Primary.Confidence)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("footer hit needs no warnings, got %v", result.Warnings)
	}
}

func TestHomepageScraper_BodyHitIsFlagged(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://awodent.pl": `<html><body>
			<main>Nasza firma (NIP 1234567802) działa od 2005 roku.</main>
			<footer>Wszystkie prawa zastrzeżone</footer>
			</body></html>`,
	}}
	s := NewHomepageScraper(fetcher)

	result := mustFind(t, s, "Awodent", "", "awodent.pl")

	if !result.Found() {
		t.Fatal("expected NIP from the page body")
	}
	if result.Primary.Confidence != 0.75 {
		t.Errorf("body hit must carry confidence 0.75, got %.2f", result.Primary.Confidence)
	}
	if len(result.Warnings) == 0 {
		t.Error("body hit must be flagged for manual review")
	}
}

func TestHomepageScraper_NoNIPAnywhere(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://awodent.pl": `<html><body><main>Zapraszamy</main></body></html>`,
	}}
	s := NewHomepageScraper(fetcher)

	result := mustFind(t, s, "Awodent", "", "awodent.pl")
	if result.Found() {
		t.Error("expected a miss for a page without NIP")
	}
	if result.ScrapedData == nil {
		t.Error("contact data should still be collected from fetched pages")
	}
}
