package registry

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"time"
)

// DefaultMetadataTTL 著录数据缓存有效期
const DefaultMetadataTTL = 7 * 24 * time.Hour

// searchTTL 检索结果缓存有效期
const searchTTL = time.Hour

// Cache TTL缓存后端（由store提供）
type Cache interface {
	GetCacheEntry(key string) ([]byte, bool, error)
	SetCacheEntry(key string, payload []byte, ttl time.Duration) error
}

// Service 带TTL缓存的登记处访问层
// 缓存命中时不发起任何网络请求；请求失败不写缓存（不缓存失败结果），
// 已缓存的旧数据也不受失败影响
type Service struct {
	cache  Cache
	client Client
	ttl    time.Duration
}

// NewService 创建登记处访问层
// ttl<=0时使用默认的7天
func NewService(cache Cache, client Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &Service{
		cache:  cache,
		client: client,
		ttl:    ttl,
	}
}

func metadataKey(patentNumber string) string {
	return "patent:metadata:" + patentNumber
}

func searchKey(query string, limit int) string {
	return fmt.Sprintf("patent:search:%s:%d", query, limit)
}

// GetOrFetch 获取专利著录数据，优先走缓存
func (s *Service) GetOrFetch(ctx context.Context, patentNumber string) (*PatentRecord, error) {
	key := metadataKey(patentNumber)

	if payload, hit, err := s.cache.GetCacheEntry(key); err == nil && hit {
		var record PatentRecord
		if err := json.Unmarshal(payload, &record); err == nil {
			log.Debug("registry cache hit", "patent", patentNumber)
			return &record, nil
		}
		// 缓存内容损坏时当作miss，重新获取后覆盖
		log.Warn("corrupt registry cache entry", "patent", patentNumber)
	}

	log.Debug("registry cache miss", "patent", patentNumber)

	record, err := s.client.Fetch(ctx, patentNumber)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(record); err == nil {
		if err := s.cache.SetCacheEntry(key, payload, s.ttl); err != nil {
			log.Warn("failed to cache registry record", "patent", patentNumber, "error", err)
		}
	}

	return record, nil
}

// Search 检索登记处，结果缓存1小时
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	key := searchKey(query, limit)

	if payload, hit, err := s.cache.GetCacheEntry(key); err == nil && hit {
		var results []SearchResult
		if err := json.Unmarshal(payload, &results); err == nil {
			log.Debug("registry search cache hit", "query", query)
			return results, nil
		}
	}

	results, err := s.client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(results); err == nil {
		if err := s.cache.SetCacheEntry(key, payload, searchTTL); err != nil {
			log.Warn("failed to cache search results", "query", query, "error", err)
		}
	}

	return results, nil
}
