package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
)

// CacheService cache in-memory có TTL; dùng cho CLI, test và khi không có Redis/MongoDB
type CacheService struct {
	cache      map[string]*models.MatchResult
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	stop   chan struct{}
	once   sync.Once
}

// NewCacheService tạo mới CacheService; ttl <= 0 nghĩa là không hết hạn
func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		cache:      make(map[string]*models.MatchResult),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
		stop:       make(chan struct{}),
	}
}

// Get lấy kết quả từ cache (trả về bản sao)
func (cs *CacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	cs.mu.RLock()
	result, exists := cs.cache[key]
	expired := exists && cs.isExpired(key)
	cs.mu.RUnlock()

	if !exists || expired {
		if expired {
			cs.deleteExpired(key)
		}
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return result.Clone(), true, nil
}

// Set lưu kết quả vào cache
func (cs *CacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.timestamps[key] = time.Now()
	cs.cache[key] = result.Clone()
	return nil
}

// Delete xóa item khỏi cache
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)
	return nil
}

// Clear xóa toàn bộ cache
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache = make(map[string]*models.MatchResult)
	cs.timestamps = make(map[string]time.Time)
	return nil
}

// InvalidateByGazetteerVersion xóa các entry của phiên bản gazetteer khác
func (cs *CacheService) InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if keyVersion(key) != gazetteerVersion {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
	return nil
}

// Size lấy kích thước cache
func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.cache)
}

// GetStats lấy thống kê cache
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	cs.mu.RLock()
	active := 0
	for key := range cs.cache {
		if !cs.isExpired(key) {
			active++
		}
	}
	cs.mu.RUnlock()

	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(active),
	}, nil
}

// CleanupExpired xóa các item hết hạn
func (cs *CacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if cs.isExpired(key) {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
}

// isExpired phải được gọi khi đang giữ lock
func (cs *CacheService) isExpired(key string) bool {
	timestamp, exists := cs.timestamps[key]
	if !exists {
		return true
	}
	return cs.ttl > 0 && time.Since(timestamp) > cs.ttl
}

func (cs *CacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// có thể đã được Set lại trong lúc chờ lock
	if cs.isExpired(key) {
		delete(cs.cache, key)
		delete(cs.timestamps, key)
	}
}

// Exists kiểm tra key có tồn tại (và chưa hết hạn) không
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	_, exists := cs.cache[key]
	return exists && !cs.isExpired(key), nil
}

// GetTTL lấy TTL còn lại của key; 0 nếu không có key hoặc không hết hạn
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	timestamp, exists := cs.timestamps[key]
	if !exists || cs.ttl <= 0 {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(timestamp)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StartCleanupWorker khởi động worker dọn dẹp cache, dừng khi Close
func (cs *CacheService) StartCleanupWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cs.CleanupExpired()
			case <-cs.stop:
				return
			}
		}
	}()
}

// Close dừng cleanup worker
func (cs *CacheService) Close() error {
	cs.once.Do(func() { close(cs.stop) })
	return nil
}
