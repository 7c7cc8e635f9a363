package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer убирает диакритику: NFD-декомпозиция, удаление
// комбинируемых знаков, обратная композиция
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldDiacritics приводит текст к ASCII-подобной форме: "przychodnia
// zdrówko" -> "przychodnia zdrowko". Польское "ł" не является
// комбинируемым знаком и обрабатывается отдельно.
func FoldDiacritics(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "ł", "l")
	folded = strings.ReplaceAll(folded, "Ł", "L")
	return folded
}

// MatchesDomainBase проверяет, похожа ли база домена на название фирмы.
// Используется эвристикой registry-доменов: awodent + awodent.pl -> true,
// awodent + gowork.pl -> false. Сравнение идет по ASCII-формам без
// дефисов и подчеркиваний.
func MatchesDomainBase(companyName, domain string) bool {
	if companyName == "" || domain == "" {
		return false
	}

	domainBase := strings.SplitN(strings.ToLower(domain), ".", 2)[0]
	domainBase = strings.NewReplacer("-", "", "_", "").Replace(domainBase)

	words := splitWords(FoldDiacritics(NormalizeCompanyName(companyName)))
	if len(words) == 0 {
		return false
	}

	cleaner := strings.NewReplacer("-", "", "_", "")
	for _, w := range words {
		word := cleaner.Replace(w)
		if len(word) < 3 {
			// Слишком короткое слово для надежного сравнения
			continue
		}
		if strings.Contains(domainBase, word) || strings.Contains(word, domainBase) {
			return true
		}
	}

	// Коротких слов может быть несколько: сравниваем склейку целиком
	companyFull := cleaner.Replace(strings.Join(words, ""))
	return companyFull != "" && (strings.Contains(domainBase, companyFull) || strings.Contains(companyFull, domainBase))
}
