package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memoryCache 测试用的内存TTL缓存
type memoryCache struct {
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) GetCacheEntry(key string) ([]byte, bool, error) {
	e, ok := c.entries[key]
	if !ok || !time.Now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.payload, true, nil
}

func (c *memoryCache) SetCacheEntry(key string, payload []byte, ttl time.Duration) error {
	c.entries[key] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	return nil
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	cache := newMemoryCache()
	client := NewMockClient()
	svc := NewService(cache, client, time.Hour)

	ctx := context.Background()

	first, err := svc.GetOrFetch(ctx, "EP1234567")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	second, err := svc.GetOrFetch(ctx, "EP1234567")
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	// TTL内第二次请求必须走缓存，不触发外部调用
	if client.Fetches != 1 {
		t.Errorf("Expected exactly 1 external fetch, got %d", client.Fetches)
	}
	if first.Title != second.Title || first.Title == "" {
		t.Errorf("Cached record differs: %q vs %q", first.Title, second.Title)
	}

	// 同一专利号总是得到同一条数据
	if first.PatentNumber != "EP1234567" {
		t.Errorf("Unexpected patent number: %s", first.PatentNumber)
	}
}

func TestGetOrFetchRefetchesAfterExpiry(t *testing.T) {
	cache := newMemoryCache()
	client := NewMockClient()
	// 负TTL让每条缓存立即过期
	svc := NewService(cache, client, time.Hour)
	svc.ttl = -time.Second

	ctx := context.Background()

	if _, err := svc.GetOrFetch(ctx, "EP1234567"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetOrFetch(ctx, "EP1234567"); err != nil {
		t.Fatal(err)
	}

	if client.Fetches != 2 {
		t.Errorf("Expected 2 external fetches after expiry, got %d", client.Fetches)
	}
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	cache := newMemoryCache()
	client := NewMockClient()
	svc := NewService(cache, client, time.Hour)

	ctx := context.Background()

	// 失败的请求必须返回ErrFetchFailed且不写缓存
	client.FailErr = errors.New("connection refused")
	_, err := svc.GetOrFetch(ctx, "EP7654321")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got %v", err)
	}
	if _, hit, _ := cache.GetCacheEntry(metadataKey("EP7654321")); hit {
		t.Error("Failed fetch must not be cached")
	}

	// 恢复后能正常获取
	client.FailErr = nil
	record, err := svc.GetOrFetch(ctx, "EP7654321")
	if err != nil {
		t.Fatalf("Fetch after recovery failed: %v", err)
	}
	if record.Title == "" {
		t.Error("Expected non-empty title after recovery")
	}
}

func TestSearchCached(t *testing.T) {
	cache := newMemoryCache()
	client := NewMockClient()
	svc := NewService(cache, client, time.Hour)

	ctx := context.Background()

	first, err := svc.Search(ctx, "battery", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(first) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(first))
	}

	second, err := svc.Search(ctx, "battery", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) {
		t.Errorf("Cached search differs: %d vs %d results", len(second), len(first))
	}

	// limit不同是不同的缓存条目
	third, err := svc.Search(ctx, "battery", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(third) != 3 {
		t.Errorf("Expected 3 results, got %d", len(third))
	}
}

func TestMockClientDeterministic(t *testing.T) {
	client := NewMockClient()
	ctx := context.Background()

	a, err := client.Fetch(ctx, "EP1234567")
	if err != nil {
		t.Fatal(err)
	}
	b, err := client.Fetch(ctx, "EP1234567")
	if err != nil {
		t.Fatal(err)
	}

	if a.Title != b.Title || a.Abstract != b.Abstract {
		t.Error("Mock records must be deterministic per patent number")
	}
	if a.FilingDate == nil || a.PublicationDate == nil {
		t.Error("Mock record should carry dates")
	}
}
