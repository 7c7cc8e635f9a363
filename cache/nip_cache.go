// Package cache реализует персистентный кэш результатов поиска NIP
// на SQLite. Ключ: нормализованная пара (название фирмы, город).
package cache

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nipfinder/models"
	"nipfinder/normalization"
)

const (
	// DefaultTTLDays срок жизни записи кэша
	DefaultTTLDays = 30
	// DefaultFreshnessWarningDays возраст, после которого попадание
	// сопровождается предупреждением о свежести
	DefaultFreshnessWarningDays = 14
)

// Stats статистика работы кэша
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Expired      int64 `json:"expired"`
	Entries      int64 `json:"entries"`
	NegativeHits int64 `json:"negative_hits"` // попадания в негативные записи (found=false)
}

// NIPCache кэш результатов на SQLite с ленивым вытеснением по TTL
type NIPCache struct {
	db                    *sql.DB
	ttlDays               int
	freshnessWarningDays  int
	mu                    sync.Mutex
	hits, misses, expired int64
	negativeHits          int64

	// Переопределяется в тестах для симуляции хода времени
	now func() time.Time
}

// NewNIPCache открывает (или создает) базу кэша по указанному пути.
// Путь ":memory:" дает чистую базу в памяти для тестов.
func NewNIPCache(dbPath string, ttlDays, freshnessWarningDays int) (*NIPCache, error) {
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}
	if freshnessWarningDays <= 0 {
		freshnessWarningDays = DefaultFreshnessWarningDays
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite плохо переносит конкурентные записи из нескольких соединений
	db.SetMaxOpenConns(1)

	c := &NIPCache{
		db:                   db,
		ttlDays:              ttlDays,
		freshnessWarningDays: freshnessWarningDays,
		now:                  time.Now,
	}

	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[NIPCache] Initialized at %s (TTL %dd, freshness warning %dd)",
		dbPath, ttlDays, freshnessWarningDays)
	return c, nil
}

func (c *NIPCache) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nip_cache (
		company_name    TEXT NOT NULL,
		city            TEXT NOT NULL,
		nip             TEXT NOT NULL,
		confidence      REAL NOT NULL,
		strategy        TEXT NOT NULL,
		validation_json TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMP NOT NULL,
		last_updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (company_name, city)
	);
	CREATE INDEX IF NOT EXISTS idx_nip_cache_updated ON nip_cache(last_updated_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// cacheKey нормализует пару (название, город) в ключ кэша
func cacheKey(companyName, city string) (string, string) {
	return normalization.NormalizeCompanyName(companyName), normalization.NormalizeCity(city)
}

// Get возвращает запись кэша или nil при промахе. Протухшие записи
// удаляются лениво при чтении. Второе возвращаемое значение сигналит,
// что запись старше порога свежести и результат стоит сопроводить
// предупреждением.
func (c *NIPCache) Get(companyName, city string) (*models.CacheEntry, bool, error) {
	name, cityNorm := cacheKey(companyName, city)
	if name == "" {
		return nil, false, nil
	}

	row := c.db.QueryRow(`
		SELECT company_name, city, nip, confidence, strategy, validation_json, created_at, last_updated_at
		FROM nip_cache
		WHERE company_name = ? AND city = ?`, name, cityNorm)

	var entry models.CacheEntry
	err := row.Scan(&entry.CompanyName, &entry.City, &entry.NIP, &entry.Confidence,
		&entry.Strategy, &entry.ValidationJSON, &entry.CreatedAt, &entry.LastUpdatedAt)
	if err == sql.ErrNoRows {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache read failed: %w", err)
	}

	now := c.now()
	if entry.IsExpired(now, c.ttlDays) {
		// Ленивое вытеснение: протухшую запись убираем сразу
		if _, delErr := c.db.Exec(`DELETE FROM nip_cache WHERE company_name = ? AND city = ?`, name, cityNorm); delErr != nil {
			log.Printf("[NIPCache] WARN: failed to evict expired entry: %v", delErr)
		}
		c.mu.Lock()
		c.expired++
		c.misses++
		c.mu.Unlock()
		return nil, false, nil
	}

	c.mu.Lock()
	c.hits++
	if entry.NIP == "" {
		c.negativeHits++
	}
	c.mu.Unlock()

	return &entry, entry.NeedsFreshnessWarning(now, c.freshnessWarningDays), nil
}

// Set сохраняет результат в кэш. Пустой NIP означает негативную запись
// (поиск не дал результата, повторять кампанию бессмысленно до TTL).
// Повторная запись того же ключа перезаписывает значение и обновляет
// last_updated_at, created_at сохраняется от первой записи.
func (c *NIPCache) Set(companyName, city, nip string, confidence float64, strategy models.SearchStrategy, validationJSON string) error {
	name, cityNorm := cacheKey(companyName, city)
	if name == "" {
		return fmt.Errorf("cannot cache entry with empty normalized name")
	}

	now := c.now()

	// Сохраняем created_at существующей записи, если она есть
	createdAt := now
	var existing time.Time
	err := c.db.QueryRow(`SELECT created_at FROM nip_cache WHERE company_name = ? AND city = ?`,
		name, cityNorm).Scan(&existing)
	if err == nil {
		createdAt = existing
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO nip_cache
			(company_name, city, nip, confidence, strategy, validation_json, created_at, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, cityNorm, nip, confidence, string(strategy), validationJSON, createdAt, now)
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	return nil
}

// Delete удаляет запись кэша
func (c *NIPCache) Delete(companyName, city string) error {
	name, cityNorm := cacheKey(companyName, city)
	_, err := c.db.Exec(`DELETE FROM nip_cache WHERE company_name = ? AND city = ?`, name, cityNorm)
	if err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// PurgeExpired удаляет все протухшие записи и возвращает их количество
func (c *NIPCache) PurgeExpired() (int64, error) {
	cutoff := c.now().AddDate(0, 0, -c.ttlDays)
	res, err := c.db.Exec(`DELETE FROM nip_cache WHERE last_updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}

	purged, _ := res.RowsAffected()
	if purged > 0 {
		log.Printf("[NIPCache] Purged %d expired entries", purged)
	}
	return purged, nil
}

// GetStats возвращает срез статистики кэша
func (c *NIPCache) GetStats() (Stats, error) {
	var entries int64
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM nip_cache`).Scan(&entries); err != nil {
		return Stats{}, fmt.Errorf("cache stats failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		Expired:      c.expired,
		Entries:      entries,
		NegativeHits: c.negativeHits,
	}, nil
}

// Close закрывает базу кэша
func (c *NIPCache) Close() error {
	return c.db.Close()
}
