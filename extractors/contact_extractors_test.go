package extractors

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestExtractEmails(t *testing.T) {
	text := "Kontakt: biuro@awodent.pl lub BIURO@AWODENT.PL, tel. 500 600 700. Logo: header@2x.png"
	got := ExtractEmails(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 unique lowercased email, got %v", got)
	}
	if got[0] != "biuro@awodent.pl" {
		t.Errorf("unexpected email: %q", got[0])
	}
}

func TestExtractEmails_Empty(t *testing.T) {
	if got := ExtractEmails("tekst bez adresow"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestExtractPhones(t *testing.T) {
	text := "Rejestracja: +48 500 600 700, recepcja 22 123 45 67. Fax: 123-456-789."
	got := ExtractPhones(text)

	want := map[string]bool{
		"+48500600700": true,
		"+48221234567": true,
		"+48123456789": true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d phones, got %v", len(want), got)
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected phone %q", p)
		}
	}
}

func TestExtractPhones_RejectsWrongLength(t *testing.T) {
	// NIP и короткие номера не должны попадать в телефоны
	got := ExtractPhones("numer 12345")
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestExtractAddresses(t *testing.T) {
	text := "Zapraszamy: ul. Marszałkowska 10/2, 00-590 Warszawa. Pon-pt 8-16."
	got := ExtractAddresses(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 address, got %v", got)
	}
	if !strings.Contains(got[0], "00-590") {
		t.Errorf("address should keep postal code: %q", got[0])
	}
}

func TestExtractSocialLinks(t *testing.T) {
	html := `<html><body>
		<a href="https://www.facebook.com/awodent">FB</a>
		<a href="https://instagram.com/awodent">IG</a>
		<a href="/kontakt">Kontakt</a>
		<a href="https://www.facebook.com/awodent">FB again</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	got := ExtractSocialLinks(doc)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique social links, got %v", got)
	}
}

func TestExtractSocialLinksFromText(t *testing.T) {
	text := "Znajdz nas: https://www.facebook.com/awodent oraz https://example.com/about."
	got := ExtractSocialLinksFromText(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 social link, got %v", got)
	}
	if !strings.Contains(got[0], "facebook.com") {
		t.Errorf("unexpected link %q", got[0])
	}
}
