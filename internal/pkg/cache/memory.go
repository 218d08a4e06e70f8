package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = sem expiração
}

// MemoryClient implementa Client em memória. Usado com STORAGE_DRIVER=memory e nos testes.
type MemoryClient struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryClient cria um cache vazio.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{items: make(map[string]memoryEntry), now: time.Now}
}

// lookup deve ser chamado com o mutex travado.
func (c *MemoryClient) lookup(key string) (memoryEntry, bool) {
	entry, ok := c.items[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.items, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (c *MemoryClient) store(key, value string, expiration time.Duration) {
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = entry
}

func (c *MemoryClient) Ping(ctx context.Context) error { return nil }

func (c *MemoryClient) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (c *MemoryClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(key, toString(value), expiration)
	return nil
}

func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

func (c *MemoryClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(key); ok {
		return false, nil
	}
	c.store(key, toString(value), expiration)
	return true, nil
}

func (c *MemoryClient) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cache: valor de %s não é inteiro", key)
		}
		n = parsed
	}
	n++
	entry.value = strconv.FormatInt(n, 10)
	c.items[key] = entry // preserva o TTL existente, como o INCR do Redis
	return n, nil
}

func (c *MemoryClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		return nil
	}
	entry.expiresAt = c.now().Add(expiration)
	c.items[key] = entry
	return nil
}

// Update é serializado pelo mutex, então nunca há conflito a refazer.
func (c *MemoryClient) Update(ctx context.Context, key string, expiration time.Duration, fn UpdateFunc) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.lookup(key)
	next, err := fn(entry.value, found)
	if err != nil {
		return "", err
	}
	c.store(key, next, expiration)
	return next, nil
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
