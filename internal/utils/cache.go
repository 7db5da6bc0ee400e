package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
type Cache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

// NewCache 创建容量为 size 的 LRU 缓存，ttl <= 0 表示不过期
func NewCache[V any](size int, ttl time.Duration) (*Cache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

func (c *Cache[V]) Set(key string, data V) {
	item := cacheItem[V]{data: data}
	if c.ttl > 0 {
		item.expiresAt = c.now().Add(c.ttl)
	}
	c.lruCache.Add(key, item)
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}

	if !val.expiresAt.IsZero() && c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}

	return val.data, true
}

func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *Cache[V]) Purge() {
	c.lruCache.Purge()
}

func (c *Cache[V]) Len() int {
	return c.lruCache.Len()
}
