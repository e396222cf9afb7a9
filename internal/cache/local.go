package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的进程内缓存
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache 创建本地缓存，maxItems 为最大条目数
func NewLocalCache(maxItems int64, ttl time.Duration) (*LocalCache, error) {
	if maxItems <= 0 {
		maxItems = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 建议为 maxItems 的 10 倍
		MaxCost:     maxItems,
		BufferItems: 64,
		// 按条目计数，不计入 ristretto 自身的内部开销
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{cache: cache, ttl: ttl}, nil
}

func (l *LocalCache) Get(code string) (string, bool) {
	if v, ok := l.cache.Get(code); ok {
		return v.(string), true
	}
	return "", false
}

// Set cost=1 表示按条目数限制
func (l *LocalCache) Set(code, url string) {
	l.cache.SetWithTTL(code, url, 1, l.ttl)
}

func (l *LocalCache) Del(code string) {
	l.cache.Del(code)
}

// Wait 等待缓冲区中的写入生效
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
