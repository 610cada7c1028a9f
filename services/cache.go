package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheService кэш производных представлений (раскладка, статистика).
// Ключи содержат версию сессии, поэтому смена вида не требует сброса.
type CacheService struct {
	cache *cache.Cache
}

func NewCacheService(defaultExpiration, cleanupInterval time.Duration) *CacheService {
	return &CacheService{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

func LayoutCacheKey(version uint64, width float64) string {
	return fmt.Sprintf("layout:%d:%s", version, strconv.FormatFloat(width, 'f', -1, 64))
}

func StatisticsCacheKey(version uint64) string {
	return fmt.Sprintf("statistics:%d", version)
}

func AutocompleteCacheKey(field, q string) string {
	return fmt.Sprintf("autocomplete:%s:%s", field, q)
}

func (s *CacheService) Get(key string) (interface{}, bool) {
	return s.cache.Get(key)
}

// Set duration 0 берёт срок по умолчанию
func (s *CacheService) Set(key string, value interface{}, duration time.Duration) {
	s.cache.Set(key, value, duration)
}

func (s *CacheService) Delete(key string) {
	s.cache.Delete(key)
}

func (s *CacheService) Flush() {
	s.cache.Flush()
}

func (s *CacheService) Len() int {
	return s.cache.ItemCount()
}
