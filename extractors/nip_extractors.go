// Package extractors извлекает NIP и контактные данные из произвольного текста.
package extractors

import (
	"regexp"
	"strings"
)

// Веса контрольной суммы NIP
var nipChecksumWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// Паттерны поиска NIP в порядке убывания точности. Последние два самые
// рискованные: голый формат с разделителями может зацепить другие номера.
var nipPatterns = []*regexp.Regexp{
	// "NIP: 123-456-78-90" или "NIP 1234567890"
	regexp.MustCompile(`(?i)NIP\s*:?\s*(\d{3}[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2})`),
	regexp.MustCompile(`(?i)NIP\s*:?\s*(\d{10})`),
	// "numer identyfikacji podatkowej: ..."
	regexp.MustCompile(`(?i)numer\s+identyfikacji\s+podatkowej\s*:?\s*(\d{3}[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2})`),
	// "podatnik VAT o numerze: ..."
	regexp.MustCompile(`(?i)podatnik\s+VAT\s+o\s+numerze\s*:?\s*(\d{10})`),
	// Голый формат с разделителями
	regexp.MustCompile(`\b(\d{3}[-\s]\d{3}[-\s]\d{2}[-\s]\d{2})\b`),
	// "NIP-1234567890" или "NIP:1234567890"
	regexp.MustCompile(`(?i)\bNIP[-:\s]*(\d{10})\b`),
}

var nipSeparatorRe = regexp.MustCompile(`[-\s]`)

// ExtractNIP возвращает первый валидный NIP из текста или пустую строку.
// Паттерны проверяются от точных к рискованным, кандидаты фильтруются
// контрольной суммой.
func ExtractNIP(text string) string {
	candidates := ExtractNIPCandidates(text)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// ExtractNIPCandidates возвращает все валидные NIP из текста в порядке
// обнаружения, без дубликатов. Невалидные по контрольной сумме
// последовательности отбрасываются.
func ExtractNIPCandidates(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string

	for _, re := range nipPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			nip := nipSeparatorRe.ReplaceAllString(m[1], "")
			if len(nip) != 10 {
				continue
			}
			if _, dup := seen[nip]; dup {
				continue
			}
			if !ValidateNIPChecksum(nip) {
				continue
			}
			seen[nip] = struct{}{}
			out = append(out, nip)
		}
	}

	return out
}

// ValidateNIPChecksum проверяет контрольную сумму NIP.
//
// Алгоритм:
//  1. Взвешенная сумма первых 9 цифр с весами [6,5,7,2,3,4,5,6,7]
//  2. Сумма mod 11; результат 10 означает невалидный NIP
//  3. Иначе результат должен совпадать с 10-й цифрой
func ValidateNIPChecksum(nip string) bool {
	if len(nip) != 10 {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		d := nip[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * nipChecksumWeights[i]
	}

	last := nip[9]
	if last < '0' || last > '9' {
		return false
	}

	checksum := sum % 11
	if checksum == 10 {
		return false
	}
	return checksum == int(last-'0')
}

// FormatNIP форматирует NIP в вид XXX-XXX-XX-XX.
// Вход неожиданной длины возвращается как есть.
func FormatNIP(nip string) string {
	if len(nip) != 10 {
		return nip
	}
	return nip[0:3] + "-" + nip[3:6] + "-" + nip[6:8] + "-" + nip[8:10]
}

// StripNIPSeparators убирает дефисы и пробелы из записи NIP
func StripNIPSeparators(nip string) string {
	return nipSeparatorRe.ReplaceAllString(strings.TrimSpace(nip), "")
}
