package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"go.uber.org/zap"
)

// HybridCacheService cache hai tầng: L1 nhanh (Redis) + L2 persistent (MongoDB)
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

// Get lấy kết quả từ L1 trước, L2 sau; hit ở L2 được đồng bộ lên L1
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi L1 cache, fallback L2", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	synced := result.Clone()
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, synced); err != nil {
			hcs.logger.Warn("Lỗi sync L2->L1", zap.Error(err), zap.String("key", key))
		}
	}()

	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return result, true, nil
}

// Set lưu vào cả hai tầng song song
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	return hcs.both("set",
		func() error { return hcs.l1.Set(ctx, key, result) },
		func() error { return hcs.l2.Set(ctx, key, result) })
}

// Delete xóa key ở cả hai tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both("delete",
		func() error { return hcs.l1.Delete(ctx, key) },
		func() error { return hcs.l2.Delete(ctx, key) })
}

// Clear xóa toàn bộ cache ở cả hai tầng
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both("clear",
		func() error { return hcs.l1.Clear(ctx) },
		func() error { return hcs.l2.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// InvalidateByGazetteerVersion invalidate cả hai tầng
func (hcs *HybridCacheService) InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error {
	if err := hcs.both("invalidate",
		func() error { return hcs.l1.InvalidateByGazetteerVersion(ctx, gazetteerVersion) },
		func() error { return hcs.l2.InvalidateByGazetteerVersion(ctx, gazetteerVersion) }); err != nil {
		return err
	}
	hcs.logger.Info("Invalidated hybrid cache", zap.String("gazetteer_version", gazetteerVersion))
	return nil
}

// GetStats kết hợp stats của hai tầng. TotalItems lấy theo L2 vì L2 chứa mọi entry.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, fmt.Errorf("cả L1 và L2 đều lỗi: %w", errors.Join(l1Err, l2Err))
	case l2Err != nil:
		return l1Stats, nil
	case l1Err != nil:
		return l2Stats, nil
	}

	// miss ở L1 rồi hit ở L2 vẫn là hit
	hits := l1Stats.TotalHits + l2Stats.TotalHits
	misses := l2Stats.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: l2Stats.TotalItems,
	}, nil
}

// Exists kiểm tra L1 trước, L2 sau
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi check L1 exists, fallback L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

// GetTTL lấy TTL của key từ L1
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

// Close đóng cả hai tầng
func (hcs *HybridCacheService) Close() error {
	return hcs.both("close", hcs.l1.Close, hcs.l2.Close)
}

// both chạy thao tác trên hai tầng song song và gộp lỗi
func (hcs *HybridCacheService) both(op string, l1, l2 func() error) error {
	errCh := make(chan error, 2)
	go func() { errCh <- l1() }()
	go func() { errCh <- l2() }()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Hybrid cache operation failed", zap.String("op", op), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cache %s: %w", op, errors.Join(errs...))
	}
	return nil
}
