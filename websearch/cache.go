package websearch

import (
	"sync"
	"time"
)

// CacheConfig конфигурация кэша поисковой выдачи
type CacheConfig struct {
	Enabled         bool          `json:"enabled"`
	TTL             time.Duration `json:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	MaxSize         int           `json:"max_size"`
}

// cacheEntry запись в кэше
type cacheEntry struct {
	response    *SearchResponse
	expiration  time.Time
	accessCount int64
}

// Cache кэш поисковой выдачи в памяти. Один и тот же запрос в рамках
// каскада (например, повтор после domain discovery) не тратит квоту API.
type Cache struct {
	config *CacheConfig
	data   map[string]*cacheEntry
	mutex  sync.RWMutex
	stats  CacheStats
}

// CacheStats статистика кэша
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewCache создает кэш и запускает периодическую очистку устаревших записей
func NewCache(config *CacheConfig) *Cache {
	cache := &Cache{
		config: config,
		data:   make(map[string]*cacheEntry),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go cache.startCleanup()
	}

	return cache
}

// Get возвращает результат из кэша
func (c *Cache) Get(key string) (*SearchResponse, bool) {
	if !c.config.Enabled {
		return nil, false
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	if time.Now().After(entry.expiration) {
		c.stats.Misses++
		return nil, false
	}

	entry.accessCount++
	c.stats.Hits++
	return entry.response, true
}

// Set сохраняет результат в кэш
func (c *Cache) Set(key string, response *SearchResponse) {
	if !c.config.Enabled {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.config.MaxSize > 0 && len(c.data) >= c.config.MaxSize {
		c.evictLRU()
	}

	c.data[key] = &cacheEntry{
		response:    response,
		expiration:  time.Now().Add(c.config.TTL),
		accessCount: 1,
	}
	c.stats.Size = len(c.data)
}

// Clear очищает весь кэш
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*cacheEntry)
	c.stats = CacheStats{}
}

// GetStats возвращает статистику кэша
func (c *Cache) GetStats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := c.stats
	stats.Size = len(c.data)
	return stats
}

// evictLRU удаляет наименее используемую запись
func (c *Cache) evictLRU() {
	var lruKey string
	var lruCount int64 = -1

	for key, entry := range c.data {
		if lruCount == -1 || entry.accessCount < lruCount {
			lruKey = key
			lruCount = entry.accessCount
		}
	}

	if lruKey != "" {
		delete(c.data, lruKey)
	}
}

// startCleanup запускает периодическую очистку устаревших записей
func (c *Cache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
	c.stats.Size = len(c.data)
}
