package strategies

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"nipfinder/classification"
	"nipfinder/websearch"
)

func TestSnippetSearch_HighTrustDomainEarlyExit(t *testing.T) {
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "AWODENT Sp. z o.o. - dane rejestrowe",
					Description: "NIP: 123-456-78-02, REGON 123456789, Wrocław",
					URL:         "https://aleo.com/pl/firma/awodent",
				},
			},
		},
	}
	s := NewSnippetSearch(search, nil)

	result := mustFind(t, s, "Awodent", "Wrocław", "")

	if !result.Found() {
		t.Fatal("expected a candidate from the snippet")
	}
	if result.Primary.NIP != validNIP1 {
		t.Errorf("expected NIP %s, got %s", validNIP1, result.Primary.NIP)
	}
	if result.Primary.Confidence != 0.95 {
		t.Errorf("high-trust domain must boost confidence to 0.95, got %.2f", result.Primary.Confidence)
	}
	// 0.95 >= 0.90, поэтому остальные варианты запроса не выполняются
	if len(search.queries) != 1 {
		t.Errorf("expected early exit after 1 query, got %d", len(search.queries))
	}
	if math.Abs(result.CostUSD-searchCostPerQuery) > 1e-9 {
		t.Errorf("expected cost of a single query, got %f", result.CostUSD)
	}
	if result.Primary.DiscoveredDomain != "aleo.com" {
		t.Errorf("expected discovered domain from result URL, got %q", result.Primary.DiscoveredDomain)
	}
}

func TestSnippetSearch_OrdinaryDomainConfidence(t *testing.T) {
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "Awodent Wrocław - kontakt",
					Description: "NIP: 1234567802, zapraszamy do rejestracji",
					URL:         "https://awodent.pl/kontakt",
				},
			},
		},
	}
	s := NewSnippetSearch(search, nil)

	result := mustFind(t, s, "Awodent", "Wrocław", "")

	if !result.Found() {
		t.Fatal("expected a candidate")
	}
	if result.Primary.Confidence != 0.70 {
		t.Errorf("ordinary domain gets base confidence 0.70, got %.2f", result.Primary.Confidence)
	}
	// 0.70 < 0.90: перебор продолжается по всем вариантам
	if len(search.queries) != len(buildSnippetQueries("Awodent", "Wrocław")) {
		t.Errorf("expected all query variants, got %d", len(search.queries))
	}
}

func TestSnippetSearch_BlacklistedDomainSkipped(t *testing.T) {
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "Awodent voucher prezentowy",
					Description: "NIP sprzedawcy: 1234567802",
					URL:         "https://allegro.pl/oferta/123",
				},
			},
		},
	}
	s := NewSnippetSearch(search, nil)

	result := mustFind(t, s, "Awodent", "", "")
	if result.Found() {
		t.Error("NIP from a blacklisted aggregator must be ignored")
	}
}

func TestSnippetSearch_PreFilterRejectsForeignCompany(t *testing.T) {
	identity := &stubIdentity{verdict: classification.IdentityVerdict{Valid: true, Confidence: 0.9}}
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "Gabinet Stomatologiczny Ortodent",
					Description: "NIP: 1234567802",
					URL:         "https://ortodent.pl",
				},
			},
		},
	}
	s := NewSnippetSearch(search, identity)

	result := mustFind(t, s, "Centrum Medyczne PragaMed", "Warszawa", "")
	if result.Found() {
		t.Error("snippet about a different company must be rejected by the pre-filter")
	}
	if identity.calls != 0 {
		t.Errorf("pre-filter must reject before the identity check, got %d calls", identity.calls)
	}
}

func TestSnippetSearch_IdentityCheckRejects(t *testing.T) {
	// Score 0.5 попадает в окно [0.5, 0.7): префильтр пройден,
	// семантическая проверка обязательна
	identity := &stubIdentity{verdict: classification.IdentityVerdict{
		Valid: false, Confidence: 0.3, Reasoning: "missing key words",
	}}
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "Awodent gabinet",
					Description: "NIP 1234567802",
					URL:         "https://gabinet.example.pl",
				},
			},
		},
	}
	s := NewSnippetSearch(search, identity)

	result := mustFind(t, s, "Awodent Med", "", "")
	if result.Found() {
		t.Error("identity rejection must drop the candidate")
	}
	if identity.calls == 0 {
		t.Error("expected the identity check to run for a mid-score match")
	}
}

func TestSnippetSearch_IdentityCheckAccepts(t *testing.T) {
	identity := &stubIdentity{verdict: classification.IdentityVerdict{
		Valid: true, Confidence: 0.8, Reasoning: "same company",
	}}
	search := &stubSearcher{
		responses: [][]websearch.SearchItem{
			{
				{
					Title:       "Awodent gabinet",
					Description: "NIP 1234567802",
					URL:         "https://gabinet.example.pl",
				},
			},
		},
	}
	s := NewSnippetSearch(search, identity)

	result := mustFind(t, s, "Awodent Med", "", "")
	if !result.Found() {
		t.Fatal("identity-approved candidate must be kept")
	}
	if result.Primary.Confidence != 0.70 {
		t.Errorf("expected base confidence 0.70, got %.2f", result.Primary.Confidence)
	}
}

func TestBuildSnippetQueries_CappedAtThree(t *testing.T) {
	queries := buildSnippetQueries("Centrum Medyczne PragaMed", "Warszawa")
	if len(queries) > maxSnippetQueries {
		t.Fatalf("expected at most %d queries, got %d: %v", maxSnippetQueries, len(queries), queries)
	}
	if queries[0] != `"Centrum Medyczne PragaMed" "Warszawa" NIP` {
		t.Errorf("most specific variant must go first, got %q", queries[0])
	}
}

func TestTruncateSnippet_RuneBoundary(t *testing.T) {
	long := strings.Repeat("żółta łódź ", 40)
	got := truncateSnippet(long)
	if !utf8.ValidString(got) {
		t.Error("truncation must not split a multi-byte rune")
	}
	if n := utf8.RuneCountInString(got); n != 200 {
		t.Errorf("expected 200 runes, got %d", n)
	}

	short := "NIP: 123-456-78-02, Żoliborz"
	if truncateSnippet(short) != short {
		t.Error("short snippet must pass through unchanged")
	}
}
