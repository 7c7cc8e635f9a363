package normalization

import "strings"

// Слова длиннее этого порога считаются информативными; их отсутствие
// в найденном названии штрафуется
const salientWordLength = 3

var defaultStemmer = NewEnglishStemmer()

// FuzzyMatch вычисляет симметричное сходство двух названий фирм (0.0-1.0)
// как Jaccard similarity над множествами нормализованных слов.
func FuzzyMatch(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0.0
	}

	words1 := wordSet(NormalizeCompanyName(name1))
	words2 := wordSet(NormalizeCompanyName(name2))

	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}

	union := len(words1) + len(words2) - intersection
	return float64(intersection) / float64(union)
}

// StrictNameMatch вычисляет, насколько найденное название соответствует
// ожидаемому. Асимметричный и более строгий score, чем FuzzyMatch:
// кандидат без значимого слова из ожидаемого названия получает низкий
// score, даже если пересечение слов выглядит приличным.
//
// Содержание проверяется только в направлении expected -> found:
// кандидат, в котором ожидаемое название присутствует целиком, надежен,
// а обратное содержание ("PragaMed" внутри "Centrum Medyczne PragaMed")
// означает потерю значимых слов и идет через покрытие со штрафом.
//
//	1.00 - точное совпадение нормализованных названий
//	0.95 - found содержит expected как подстроку
//	0.90 - совпадение без учета пробелов ("pro body" и "probody")
//	0.85 - expected (>= 4 символов) содержится в found без пробелов
//	иначе - доля слов expected, присутствующих в found, со штрафом
//	        за отсутствующие длинные слова
func StrictNameMatch(expected, found string) float64 {
	if expected == "" || found == "" {
		return 0.0
	}

	expectedNorm := NormalizeCompanyName(expected)
	foundNorm := NormalizeCompanyName(found)

	if expectedNorm == foundNorm {
		return 1.0
	}
	if strings.Contains(foundNorm, expectedNorm) {
		return 0.95
	}

	expectedNoSpace := strings.ReplaceAll(expectedNorm, " ", "")
	foundNoSpace := strings.ReplaceAll(foundNorm, " ", "")

	if expectedNoSpace == foundNoSpace {
		return 0.90
	}
	// "probody" должно матчиться с "spa pro body" и "probodyclinic"
	if len(expectedNoSpace) >= 4 && strings.Contains(foundNoSpace, expectedNoSpace) {
		return 0.85
	}

	expectedWords := significantWords(expectedNorm)
	foundStems := stemmedSet(significantWords(foundNorm))

	if len(expectedWords) == 0 {
		return 0.0
	}

	matched := 0
	var missing []string
	for _, w := range expectedWords {
		if _, ok := foundStems[defaultStemmer.StemWithCache(w)]; ok {
			matched++
		} else {
			missing = append(missing, w)
		}
	}

	coverage := float64(matched) / float64(len(expectedWords))

	// Штраф за отсутствие информативных слов: "PragaMed Sp. z o.o."
	// не является матчем для "Centrum Medyczne PragaMed"
	salientMissing := 0
	for _, w := range missing {
		if len([]rune(w)) > salientWordLength {
			salientMissing++
		}
	}
	if salientMissing > 0 {
		coverage *= 1.0 - 0.3*float64(salientMissing)/float64(len(expectedWords))
	}

	if coverage > 1.0 {
		coverage = 1.0
	}
	if coverage < 0.0 {
		coverage = 0.0
	}
	return coverage
}

// significantWords возвращает слова длиной > 1 из нормализованного текста
func significantWords(normalized string) []string {
	var out []string
	for _, w := range splitWords(normalized) {
		if len([]rune(w)) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// stemmedSet строит множество основ слов
func stemmedSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[defaultStemmer.StemWithCache(w)] = struct{}{}
	}
	return set
}
