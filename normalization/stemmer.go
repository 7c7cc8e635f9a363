package normalization

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// EnglishStemmer стеммер Snowball для английских слов в названиях фирм
// ("clinics" -> "clinic"). Слова с польскими диакритиками возвращаются
// без изменений - для них english-стеммер не применим.
type EnglishStemmer struct {
	language string
	cache    map[string]string
	mu       sync.RWMutex
}

// NewEnglishStemmer создает стеммер с кэшированием
func NewEnglishStemmer() *EnglishStemmer {
	return &EnglishStemmer{
		language: "english",
		cache:    make(map[string]string),
	}
}

// Stem возвращает основу слова
func (s *EnglishStemmer) Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	if !isASCII(normalized) {
		return normalized
	}

	stemmed, err := snowball.Stem(normalized, s.language, true)
	if err != nil {
		return normalized
	}
	return stemmed
}

// StemWithCache возвращает основу слова, кэшируя результат
func (s *EnglishStemmer) StemWithCache(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	s.mu.RLock()
	if cached, ok := s.cache[normalized]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	stemmed := s.Stem(normalized)

	s.mu.Lock()
	s.cache[normalized] = stemmed
	s.mu.Unlock()

	return stemmed
}

// CacheSize возвращает размер внутреннего кэша
func (s *EnglishStemmer) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
