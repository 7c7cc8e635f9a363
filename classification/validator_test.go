package classification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"nipfinder/websearch"
)

// newGeminiStub поднимает сервер, отвечающий заданным текстом модели
func newGeminiStub(t *testing.T, modelText string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("expected key query parameter")
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": modelText}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestValidator(serverURL string) *IdentityValidator {
	return NewIdentityValidator(NewGeminiClient(GeminiConfig{
		BaseURL:        serverURL,
		APIKey:         "test-key",
		RetryBaseDelay: time.Millisecond,
	}))
}

func TestIdentityValidator_Accept(t *testing.T) {
	server := newGeminiStub(t, `{"valid": true, "confidence": 0.92, "reasoning": "all words present"}`)

	v := newTestValidator(server.URL)
	verdict := v.ValidateCompanyIdentity(context.Background(), "Centrum Medyczne PragaMed", "Warszawa", "1234567802",
		map[string]string{"snippet": "Centrum Medyczne PragaMed, NIP 123-456-78-02"})

	if !verdict.Valid || verdict.Confidence != 0.92 {
		t.Errorf("unexpected verdict: %+v", verdict)
	}
}

func TestIdentityValidator_Reject(t *testing.T) {
	server := newGeminiStub(t, "```json\n{\"valid\": false, \"confidence\": 0.55, \"reasoning\": \"missing Centrum Medyczne\"}\n```")

	v := newTestValidator(server.URL)
	verdict := v.ValidateCompanyIdentity(context.Background(), "Centrum Medyczne PragaMed", "Warszawa", "1234567802",
		map[string]string{"found_name": "PRAGAMED Sp. z o.o."})

	if verdict.Valid {
		t.Error("expected rejection")
	}
}

func TestIdentityValidator_MalformedResponseIsPermissive(t *testing.T) {
	server := newGeminiStub(t, "I am unable to determine this.")

	v := newTestValidator(server.URL)
	verdict := v.ValidateCompanyIdentity(context.Background(), "Awodent", "Warszawa", "1234567802", nil)

	// Неразборчивый ответ дает разрешающий вердикт с низкой уверенностью
	if !verdict.Valid {
		t.Error("malformed response should not reject the candidate")
	}
	if verdict.Confidence != 0.5 {
		t.Errorf("expected fallback confidence 0.5, got %.2f", verdict.Confidence)
	}
}

func TestIdentityValidator_NotConfigured(t *testing.T) {
	v := NewIdentityValidator(NewGeminiClient(GeminiConfig{}))

	if v.Available() {
		t.Error("validator without API key should not be available")
	}

	verdict := v.ValidateCompanyIdentity(context.Background(), "Awodent", "", "1234567802", nil)
	if !verdict.Valid || verdict.Confidence != 0.5 {
		t.Errorf("expected permissive fallback, got %+v", verdict)
	}
}

func TestGeminiClient_RetriesOn429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		RetryBaseDelay: time.Millisecond,
	})

	text, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "ok" || calls != 2 {
		t.Errorf("expected retry success, text=%q calls=%d", text, calls)
	}
}

func TestDomainDiscovery_AcceptsConfidentDomain(t *testing.T) {
	server := newGeminiStub(t, `{"domain": "pragamed.pl", "confidence": 0.95, "reasoning": "url matches"}`)

	d := NewDomainDiscovery(NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "test-key"}))
	domain, err := d.DiscoverDomain(context.Background(), "PragaMed", "Warszawa", []websearch.SearchItem{
		{Title: "PragaMed - Centrum Medyczne", URL: "https://pragamed.pl"},
	})
	if err != nil {
		t.Fatalf("DiscoverDomain failed: %v", err)
	}
	if domain != "pragamed.pl" {
		t.Errorf("expected pragamed.pl, got %q", domain)
	}
}

func TestDomainDiscovery_RejectsLowConfidence(t *testing.T) {
	server := newGeminiStub(t, `{"domain": "pragamed.pl", "confidence": 0.5, "reasoning": "uncertain"}`)

	d := NewDomainDiscovery(NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "test-key"}))
	domain, err := d.DiscoverDomain(context.Background(), "PragaMed", "Warszawa", []websearch.SearchItem{
		{URL: "https://pragamed.pl"},
	})
	if err != nil {
		t.Fatalf("DiscoverDomain failed: %v", err)
	}
	if domain != "" {
		t.Errorf("expected empty domain for low confidence, got %q", domain)
	}
}

func TestDomainDiscovery_NullDomain(t *testing.T) {
	server := newGeminiStub(t, `{"domain": "null", "confidence": 0.9, "reasoning": "no official site found"}`)

	d := NewDomainDiscovery(NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "test-key"}))
	domain, err := d.DiscoverDomain(context.Background(), "PragaMed", "", []websearch.SearchItem{
		{URL: "https://znanylekarz.pl/pragamed"},
	})
	if err != nil {
		t.Fatalf("DiscoverDomain failed: %v", err)
	}
	if domain != "" {
		t.Errorf("expected empty domain for null, got %q", domain)
	}
}

func TestDomainDiscovery_NoResults(t *testing.T) {
	d := NewDomainDiscovery(NewGeminiClient(GeminiConfig{APIKey: "test-key"}))

	domain, err := d.DiscoverDomain(context.Background(), "PragaMed", "", nil)
	if err != nil || domain != "" {
		t.Errorf("expected empty domain without results, got %q err=%v", domain, err)
	}
}

func TestBuildIdentityPrompt_ContainsRules(t *testing.T) {
	prompt := buildIdentityPrompt("Centrum Medyczne PragaMed", "", "1234567802",
		map[string]string{"snippet": "text"})

	for _, fragment := range []string{"STRICT validator", "ALL WORDS", "1234567802", "unknown"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt should contain %q", fragment)
		}
	}
}

func TestBuildIdentityPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	prompt := buildIdentityPrompt("Żółć", "Łódź", "1234567802",
		map[string]string{"snippet": strings.Repeat("żółwią gęślą ", 300)})

	if !utf8.ValidString(prompt) {
		t.Error("source data truncation must not split a multi-byte rune")
	}
}
