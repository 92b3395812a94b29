// Package lru 提供一个带过期时间、线程安全的泛型 LRU 缓存。
package lru

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// ErrInvalidCapacity 表示容量小于等于 0。
var ErrInvalidCapacity = errors.New("lru: capacity must be positive")

type item[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // 零值表示永不过期
}

// Cache 是一个按条目数淘汰的 LRU 缓存，过期条目在读取时被动清除。
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	now      func() time.Time
}

// New 创建一个最多保存 capacity 个条目的缓存。
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
		now:      time.Now,
	}, nil
}

// Get 返回 key 对应的值并将其标记为最近使用。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	it := el.Value.(*item[K, V])
	if !it.expiresAt.IsZero() && c.now().After(it.expiresAt) {
		c.remove(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return it.value, true
}

// Put 写入或覆盖 key。ttl <= 0 表示永不过期。超出容量时淘汰最久未使用的条目。
func (c *Cache[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	if el, ok := c.items[key]; ok {
		it := el.Value.(*item[K, V])
		it.value, it.expiresAt = value, expiresAt
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&item[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.ll.Len() > c.capacity {
		c.remove(c.ll.Back())
	}
}

// Len 返回当前条目数，包括尚未被清除的过期条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*item[K, V]).key)
}
