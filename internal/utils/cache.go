package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem 包装缓存数据和过期时间
type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache 本地 LRU 缓存，每个条目带 TTL
type Cache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	now      func() time.Time
}

// NewCache 创建容量为 size 的缓存
func NewCache[V any](size int) (*Cache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache[V]{lruCache: l, now: time.Now}, nil
}

// Set 设置缓存，TTL 为过期时间
func (c *Cache[V]) Set(key string, data V, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(ttl),
	})
}

// Get 获取缓存，不存在或已过期时 ok 为 false
func (c *Cache[V]) Get(key string) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}

	// 检查过期
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}

	return val.data, true
}

// Delete 删除指定缓存
func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

// Len 当前条目数(含未清理的过期条目)
func (c *Cache[V]) Len() int {
	return c.lruCache.Len()
}
