package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetCacheEntry 读取缓存条目
// 只有未过期的条目算命中；过期条目当作不存在，返回 (nil, false)
func (s *Store) GetCacheEntry(key string) ([]byte, bool, error) {
	var payload []byte
	var expiresAt string

	err := s.db.QueryRow(`
		SELECT payload, expires_at FROM registry_cache WHERE key = ?
	`, key).Scan(&payload, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse cache expiry: %w", err)
	}

	if !time.Now().UTC().Before(expiry) {
		return nil, false, nil
	}

	return payload, true, nil
}

// SetCacheEntry 写入缓存条目，过期时间 = 当前时间 + ttl
// 同一key重复写入会刷新内容和过期时间
func (s *Store) SetCacheEntry(key string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO registry_cache (key, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, key, payload, now.Format(time.RFC3339Nano), now.Add(ttl).Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

// DeleteCacheEntry 删除单个缓存条目
func (s *Store) DeleteCacheEntry(key string) error {
	_, err := s.db.Exec(`DELETE FROM registry_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PurgeExpiredCache 清理所有已过期的缓存条目，返回删除的行数
func (s *Store) PurgeExpiredCache() (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.Exec(`DELETE FROM registry_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache: %w", err)
	}
	return int(n), nil
}

// CountCacheEntries 统计未过期的缓存条目数
func (s *Store) CountCacheEntries() (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM registry_cache WHERE expires_at > ?
	`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
