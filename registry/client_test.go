package registry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"
)

const searchRowsXML = `<root>
  <dane>
    <Regon>012345678</Regon>
    <Nip>1234567802</Nip>
    <Nazwa>AWODENT STOMATOLOGIA SP. Z O.O.</Nazwa>
    <Wojewodztwo>MAZOWIECKIE</Wojewodztwo>
    <Miejscowosc>Warszawa</Miejscowosc>
  </dane>
  <dane>
    <Regon>987654321</Regon>
    <Nip>5260250274</Nip>
    <Nazwa>AWODENT PLUS</Nazwa>
    <Wojewodztwo>POMORSKIE</Wojewodztwo>
    <Miejscowosc>Gdansk</Miejscowosc>
  </dane>
</root>`

// newRegistryServer эмулирует цикл Zaloguj/DaneSzukajPodmioty/Wyloguj
func newRegistryServer(t *testing.T, calls *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		payload := string(body)

		switch {
		case strings.Contains(payload, "Zaloguj"):
			*calls = append(*calls, "login")
			w.Write([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
				<s:Body><ZalogujResponse><ZalogujResult>session-abc</ZalogujResult></ZalogujResponse></s:Body>
			</s:Envelope>`))
		case strings.Contains(payload, "DaneSzukajPodmioty"):
			*calls = append(*calls, "search")
			if r.Header.Get("sid") != "session-abc" {
				t.Errorf("missing sid header on search, got %q", r.Header.Get("sid"))
			}
			escaped := strings.ReplaceAll(strings.ReplaceAll(searchRowsXML, "<", "&lt;"), ">", "&gt;")
			w.Write([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
				<s:Body><DaneSzukajPodmiotyResponse><DaneSzukajPodmiotyResult>` + escaped + `</DaneSzukajPodmiotyResult></DaneSzukajPodmiotyResponse></s:Body>
			</s:Envelope>`))
		case strings.Contains(payload, "Wyloguj"):
			*calls = append(*calls, "logout")
			w.Write([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
				<s:Body><WylogujResponse><WylogujResult>true</WylogujResult></WylogujResponse></s:Body>
			</s:Envelope>`))
		default:
			t.Errorf("unexpected SOAP payload: %s", payload)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func TestClient_SearchByName(t *testing.T) {
	var calls []string
	server := newRegistryServer(t, &calls)
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:   server.URL,
		APIKey:    "gus-key",
		RateLimit: rate.Inf,
	})

	companies, err := client.SearchByName(context.Background(), "awodent")
	if err != nil {
		t.Fatalf("SearchByName failed: %v", err)
	}

	if len(companies) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(companies))
	}
	first := companies[0]
	if first.NIP != "1234567802" || first.City != "Warszawa" || first.Voivodeship != "MAZOWIECKIE" {
		t.Errorf("unexpected first company: %+v", first)
	}

	// Полный цикл сессии вокруг каждого поиска
	want := []string{"login", "search", "logout"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected call sequence %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: got %q, expected %q", i, calls[i], want[i])
		}
	}
}

func TestClient_SearchByName_NoCredentials(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://unused", RateLimit: rate.Inf})

	if _, err := client.SearchByName(context.Background(), "awodent"); err != ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
	if client.HasCredentials() {
		t.Error("HasCredentials should be false without key")
	}
}

func TestClient_LoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Пустой идентификатор сессии означает отклоненный ключ
		w.Write([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
			<s:Body><ZalogujResponse><ZalogujResult></ZalogujResult></ZalogujResponse></s:Body>
		</s:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "bad-key", RateLimit: rate.Inf})

	if _, err := client.SearchByName(context.Background(), "awodent"); err == nil {
		t.Fatal("expected error for rejected key")
	}
}

func TestParseCompanies_Empty(t *testing.T) {
	companies, err := parseCompanies("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if companies != nil {
		t.Errorf("expected nil for empty payload, got %v", companies)
	}
}

func TestParseCompanies_ErrorRowSkipped(t *testing.T) {
	inner := `<root><dane><ErrorCode>4</ErrorCode></dane></root>`
	companies, err := parseCompanies(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(companies) != 0 {
		t.Errorf("expected error row to be skipped, got %v", companies)
	}
}
