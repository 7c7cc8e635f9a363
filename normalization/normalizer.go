package normalization

import (
	"regexp"
	"strings"
)

// Максимальное число итераций удаления общих слов при извлечении базового имени
const maxBaseNameIterations = 5

// Юридические формы (польские и международные), удаляемые при нормализации
var legalFormPatterns = []*regexp.Regexp{
	// Без хвостового \b: граница слова в regexp ASCII-ориентированная,
	// после польской буквы она не срабатывает
	regexp.MustCompile(`(?i)\bspółka\s+z\s+ograniczoną\s+odpowiedzialnością`),
	regexp.MustCompile(`(?i)\bsp\.\s*z\s*o\.?\s*o\.?`),
	regexp.MustCompile(`(?i)\bspółka\s+akcyjna\b`),
	regexp.MustCompile(`(?i)\bspółka\s+komandytowo-akcyjna\b`),
	regexp.MustCompile(`(?i)\bs\.\s*k\.\s*a\.?`),
	regexp.MustCompile(`(?i)\bs\.\s*a\.?`),
	regexp.MustCompile(`(?i)\bspółka\s+jawna\b`),
	regexp.MustCompile(`(?i)\bsp\.\s*j\.?`),
	regexp.MustCompile(`(?i)\bspółka\s+cywilna\b`),
	regexp.MustCompile(`(?i)\bsp\.\s*c\.?`),
	regexp.MustCompile(`(?i)\bspółka\s+komandytowa\b`),
	regexp.MustCompile(`(?i)\bsp\.\s*k\.?`),
	regexp.MustCompile(`(?i)\bp\.?\s*p\.?\s*h\.?\s*u\.?\b`),
	regexp.MustCompile(`(?i)\bp\.?\s*h\.?\s*u\.?\b`),
	regexp.MustCompile(`(?i)\bltd\.?\b`),
	regexp.MustCompile(`(?i)\blimited\b`),
	regexp.MustCompile(`(?i)\binc\.?\b`),
	regexp.MustCompile(`(?i)\bincorporated\b`),
	regexp.MustCompile(`(?i)\bcorp\.?\b`),
	regexp.MustCompile(`(?i)\bcorporation\b`),
	regexp.MustCompile(`(?i)\bllc\.?\b`),
	regexp.MustCompile(`(?i)\bgmbh\b`),
}

// Общие слова, удаляемые при извлечении базового имени фирмы
var genericWordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(przychodnia|poradnia|klinika|centrum|gabinet|praktyka)\b`),
	regexp.MustCompile(`(?i)\b(firma|przedsiębiorstwo|zakład|spółka)\b`),
	regexp.MustCompile(`(?i)\b(medyczne|medyczny|medyczna|medycznych|stomatologiczna|stomatologiczny)\b`),
	regexp.MustCompile(`(?i)\b(grupa|group|clinic|center|centre)\b`),
	regexp.MustCompile(`(?i)\bsieć`),
}

var (
	// Оставляем буквы (включая польские), цифры, пробелы и дефисы
	nonAlnumRe   = regexp.MustCompile(`[^\p{L}\p{N}\s\-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	dashRunRe    = regexp.MustCompile(`-{2,}`)
)

// NormalizeCompanyName нормализует название фирмы для сравнения и ключей кэша.
//
// Операции:
//  1. Удаление юридических форм (sp. z o.o., S.A., Ltd и т.д.)
//  2. Удаление спецсимволов (кроме внутренних дефисов и локальных букв)
//  3. Схлопывание пробелов
//  4. Lowercase + trim
//
// Детерминированная и идемпотентная: Normalize(Normalize(x)) == Normalize(x).
func NormalizeCompanyName(name string) string {
	if name == "" {
		return ""
	}

	normalized := name
	for _, re := range legalFormPatterns {
		normalized = re.ReplaceAllString(normalized, " ")
	}

	normalized = nonAlnumRe.ReplaceAllString(normalized, " ")
	normalized = dashRunRe.ReplaceAllString(normalized, "-")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = strings.ToLower(strings.TrimSpace(normalized))
	// Дефис на границе - остаток от вырезанной формы, не часть имени
	normalized = strings.Trim(normalized, "-")

	return strings.TrimSpace(normalized)
}

// NormalizeCity нормализует название города для ключа кэша
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// ExtractBaseName извлекает базовое имя фирмы: нормализует и итеративно
// удаляет общие отраслевые слова до неподвижной точки.
//
// Пример: "Centrum Medyczne PragaMed" -> "pragamed"
func ExtractBaseName(fullName string) string {
	normalized := NormalizeCompanyName(fullName)

	prev := ""
	for i := 0; normalized != prev && i < maxBaseNameIterations; i++ {
		prev = normalized
		for _, re := range genericWordPatterns {
			normalized = re.ReplaceAllString(normalized, " ")
		}
		normalized = strings.TrimSpace(whitespaceRe.ReplaceAllString(normalized, " "))
	}

	return normalized
}

// splitWords разбивает нормализованный текст на непустые слова
func splitWords(normalized string) []string {
	return strings.Fields(normalized)
}

// wordSet строит множество слов из нормализованного текста
func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range splitWords(normalized) {
		set[w] = struct{}{}
	}
	return set
}
