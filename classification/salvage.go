package classification

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// stripMarkdownFences убирает обертку ```json ... ``` из ответа модели.
// Модель инструктирована отвечать голым JSON, но инструкции соблюдаются
// не всегда.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-len("```")]
	}
	return strings.TrimSpace(text)
}

// extractJSONObject вырезает первый JSON-объект из текста: от первой
// открывающей скобки до последней закрывающей. Модель иногда добавляет
// пояснения до или после объекта.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

// parseModelJSON разбирает ответ модели в указанную структуру, пройдя
// через очистку от markdown и вырезание объекта
func parseModelJSON(text string, out any) error {
	cleaned := extractJSONObject(stripMarkdownFences(text))
	if cleaned == "" {
		return &ParseError{Raw: text}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &ParseError{Raw: text, Err: err}
	}
	return nil
}

var (
	validFieldRe      = regexp.MustCompile(`"valid"\s*:\s*(true|false)`)
	confidenceFieldRe = regexp.MustCompile(`"confidence"\s*:\s*([0-9]*\.?[0-9]+)`)
	reasoningFieldRe  = regexp.MustCompile(`"reasoning"\s*:\s*"([^"]*)`)
)

// salvageIdentityVerdict пытается вытащить поля valid/confidence/reasoning
// регулярными выражениями из оборванного или поврежденного JSON. Требуется
// хотя бы поле valid, остальные опциональны.
func salvageIdentityVerdict(text string) (IdentityVerdict, bool) {
	m := validFieldRe.FindStringSubmatch(text)
	if m == nil {
		return IdentityVerdict{}, false
	}

	verdict := IdentityVerdict{Valid: m[1] == "true"}

	if cm := confidenceFieldRe.FindStringSubmatch(text); cm != nil {
		if conf, err := strconv.ParseFloat(cm[1], 64); err == nil {
			verdict.Confidence = conf
		}
	}
	if rm := reasoningFieldRe.FindStringSubmatch(text); rm != nil {
		verdict.Reasoning = rm[1]
	}

	return verdict, true
}

// ParseError ответ модели не удалось разобрать как JSON
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "failed to parse model response: " + e.Err.Error()
	}
	return "model response contains no JSON object"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
