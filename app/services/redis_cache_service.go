package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// RedisCacheService cache service sử dụng Redis, value encode bằng msgpack
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService tạo mới Redis cache service
func NewRedisCacheService(redisURL string, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("lỗi parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err = client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("không thể kết nối Redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client, logger), nil
}

// NewRedisCacheServiceWithClient dùng client có sẵn (không ping)
func NewRedisCacheServiceWithClient(client *redis.Client, logger *zap.Logger) *RedisCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: "addr_matcher:",
		ttl:    24 * time.Hour,
	}
}

// Get lấy kết quả từ cache
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Lỗi get từ Redis", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var result models.MatchResult
	if err := msgpack.Unmarshal(val, &result); err != nil {
		rcs.logger.Error("Lỗi decode cache data", zap.Error(err))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &result, true, nil
}

// Set lưu kết quả vào cache
func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	cacheKey := rcs.prefix + key

	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("lỗi encode cache data: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Lỗi set vào Redis", zap.Error(err), zap.String("key", cacheKey))
		return err
	}

	rcs.logger.Debug("Đã lưu vào Redis cache", zap.String("key", key))
	return nil
}

// Delete xóa key khỏi cache
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	cacheKey := rcs.prefix + key

	if err := rcs.client.Del(ctx, cacheKey).Err(); err != nil {
		rcs.logger.Error("Lỗi delete từ Redis", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

// Clear xóa toàn bộ cache của service
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted, err := rcs.deleteMatching(ctx, func(string) bool { return true })
	if err != nil {
		return err
	}
	rcs.logger.Info("Đã clear Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByGazetteerVersion xóa key của các phiên bản gazetteer khác.
// Phiên bản nằm trong key nên không cần đọc value.
func (rcs *RedisCacheService) InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error {
	deleted, err := rcs.deleteMatching(ctx, func(key string) bool {
		return keyVersion(key) != gazetteerVersion
	})
	if err != nil {
		return fmt.Errorf("lỗi invalidate Redis cache: %w", err)
	}
	rcs.logger.Info("Đã invalidate Redis cache",
		zap.String("gazetteer_version", gazetteerVersion),
		zap.Int("keys_deleted", deleted))
	return nil
}

// deleteMatching SCAN theo prefix rồi xóa theo lô các key thỏa match
func (rcs *RedisCacheService) deleteMatching(ctx context.Context, match func(key string) bool) (int, error) {
	const batch = 500
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", batch).Iterator()

	var pending []string
	deleted := 0
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := rcs.client.Del(ctx, pending...).Err(); err != nil {
			return fmt.Errorf("lỗi xóa keys: %w", err)
		}
		deleted += len(pending)
		pending = pending[:0]
		return nil
	}

	for iter.Next(ctx) {
		full := iter.Val()
		if match(strings.TrimPrefix(full, rcs.prefix)) {
			pending = append(pending, full)
		}
		if len(pending) >= batch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("lỗi scan keys: %w", err)
	}
	return deleted, flush()
}

// GetStats lấy thống kê cache
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var totalItems int64
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		totalItems++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("lỗi đếm keys Redis: %w", err)
	}

	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: totalItems,
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// GetTTL lấy TTL của key
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return rcs.client.TTL(ctx, rcs.prefix+key).Result()
}

// Close đóng kết nối Redis
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

// SetTTL thiết lập TTL cho service
func (rcs *RedisCacheService) SetTTL(ttl time.Duration) {
	rcs.ttl = ttl
}

// Ping kiểm tra kết nối (readiness)
func (rcs *RedisCacheService) Ping(ctx context.Context) error {
	return rcs.client.Ping(ctx).Err()
}
