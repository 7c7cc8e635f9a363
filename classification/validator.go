package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// IdentityVerdict вердикт семантической проверки принадлежности NIP
type IdentityVerdict struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// permissiveVerdict возвращается при недоступности классификатора или
// неразборчивом ответе: кандидата не отклоняем, но уверенность низкая.
func permissiveVerdict(reason string) IdentityVerdict {
	return IdentityVerdict{Valid: true, Confidence: 0.5, Reasoning: reason}
}

// IdentityValidator семантическая проверка через классификатор
type IdentityValidator struct {
	client *GeminiClient
}

// NewIdentityValidator создает валидатор поверх клиента классификатора
func NewIdentityValidator(client *GeminiClient) *IdentityValidator {
	return &IdentityValidator{client: client}
}

// Available сообщает, доступна ли семантическая проверка
func (v *IdentityValidator) Available() bool {
	return v.client != nil && v.client.Available()
}

// ValidateCompanyIdentity проверяет через классификатор, принадлежит ли
// NIP именно искомой фирме. sourceData несет контекст источника:
// сниппет, URL, найденное название. При недоступности классификатора
// или неразборчивом ответе возвращается разрешающий вердикт с низкой
// уверенностью, отказ ему не полагается.
func (v *IdentityValidator) ValidateCompanyIdentity(ctx context.Context, companyName, city, nip string, sourceData map[string]string) IdentityVerdict {
	if !v.Available() {
		return permissiveVerdict("classifier not available")
	}

	prompt := buildIdentityPrompt(companyName, city, nip, sourceData)

	text, err := v.client.GenerateText(ctx, prompt)
	if err != nil {
		log.Printf("[Classifier] ERROR: identity check failed for NIP %s: %v", nip, err)
		return permissiveVerdict(fmt.Sprintf("classifier error: %v", err))
	}

	var verdict IdentityVerdict
	if err := parseModelJSON(text, &verdict); err != nil {
		// Оборванный JSON: пробуем вытащить поля регулярными выражениями
		salvaged, ok := salvageIdentityVerdict(text)
		if !ok {
			log.Printf("[Classifier] ERROR: unparseable identity response for NIP %s: %v", nip, err)
			return permissiveVerdict("classifier response was not valid JSON")
		}
		log.Printf("[Classifier] WARN: salvaged malformed identity response for NIP %s", nip)
		verdict = salvaged
	}

	log.Printf("[Classifier] Identity check: NIP %s for '%s' -> valid=%v, confidence=%.2f",
		nip, companyName, verdict.Valid, verdict.Confidence)
	return verdict
}

// buildIdentityPrompt строит промпт строгой проверки идентичности.
// Правила повторяют семантику StrictNameMatch: все слова ожидаемого
// названия должны присутствовать, частичное совпадение означает другую
// фирму.
func buildIdentityPrompt(companyName, city, nip string, sourceData map[string]string) string {
	if city == "" {
		city = "unknown"
	}

	source, _ := json.MarshalIndent(sourceData, "", "  ")
	sourceText := string(source)
	// Обрезка по рунам, иначе польская буква на границе дает битый UTF-8
	if runes := []rune(sourceText); len(runes) > 2000 {
		sourceText = string(runes[:2000])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a STRICT validator. Analyze if this NIP belongs to EXACTLY the correct company.\n\n")
	fmt.Fprintf(&b, "Expected Company: %s\n", companyName)
	fmt.Fprintf(&b, "Expected City: %s\n", city)
	fmt.Fprintf(&b, "Found NIP: %s\n\n", nip)
	fmt.Fprintf(&b, "Source Data:\n%s\n\n", sourceText)
	fmt.Fprintf(&b, "Question: Does NIP %s belong to EXACTLY company %q in %s?\n\n", nip, companyName, city)
	b.WriteString(`CRITICAL RULES - MUST FOLLOW:
1. Company name must contain ALL WORDS from expected name
   - Expected: "Centrum Medyczne PragaMed"
   - Found: "PRAGAMED Sp. z o.o." -> REJECT (missing "Centrum Medyczne")
   - Found: "Centrum Medyczne PragaMed" -> ACCEPT (all words present)

2. Partial name match = DIFFERENT COMPANY
   - "PRAGAMED" is NOT a match for "Centrum Medyczne PragaMed"
   - Base name alone is NOT sufficient
   - Missing key words = REJECT

3. Different legal forms may indicate different companies
   - "Sp. z o.o." vs no legal form
   - "S.A." vs "Sp. z o.o."
   - Consider this in confidence scoring

4. Different addresses in same city = likely different companies

5. Confidence thresholds:
   - 0.95+: Exact name match + same address
   - 0.85-0.94: All words present, minor differences
   - 0.70-0.84: Most words present but missing some key words
   - < 0.70: REJECT - likely different company (set valid=false)

Respond with ONLY a JSON object, no other text before or after:
{
    "valid": false,
    "confidence": 0.60,
    "reasoning": "Missing 'Centrum Medyczne' - likely different company"
}

Do not include markdown code blocks. Return raw JSON only.`)
	return b.String()
}
