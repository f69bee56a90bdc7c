package services

import (
	"context"
	"strings"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService interface định nghĩa các method cần thiết cho cache kết quả match.
// Key được tạo bằng CacheKey nên luôn mang phiên bản gazetteer.
type ICacheService interface {
	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.MatchResult, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.MatchResult) error

	// Delete xóa key khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateByGazetteerVersion xóa mọi entry không thuộc gazetteerVersion
	InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

const keySeparator = "|"

// CacheKey ghép phiên bản gazetteer với các dạng query mà kết quả match phụ thuộc vào.
// Khi gazetteer đổi, key cũ tự nhiên không còn được đọc tới.
func CacheKey(gazetteerVersion string, query ...string) string {
	return gazetteerVersion + keySeparator + strings.Join(query, keySeparator)
}

// keyVersion tách phiên bản gazetteer ra khỏi cache key
func keyVersion(key string) string {
	version, _, _ := strings.Cut(key, keySeparator)
	return version
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
