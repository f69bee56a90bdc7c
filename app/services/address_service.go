package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/internal/extractor"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/geocoder"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery query rỗng sau khi gom khoảng trắng
	ErrEmptyQuery = errors.New("services: query không được để trống")
	// ErrEmptyText bài báo rỗng
	ErrEmptyText = errors.New("services: text không được để trống")
	// ErrExtractorDisabled không cấu hình LLM extractor
	ErrExtractorDisabled = errors.New("services: extractor chưa được cấu hình")
)

// AddressService ghép matcher, cache, extractor và geocoder.
// Matcher có thể được thay nóng bằng Reload; các request đang chạy vẫn dùng bản cũ.
type AddressService struct {
	matcher   atomic.Pointer[matcher.Matcher]
	cache     ICacheService
	extractor extractor.Extractor
	geocoder  geocoder.Geocoder
	logger    *zap.Logger
	startTime time.Time

	batchCfg BatchConfig
	jobs     *jobStore

	totalMatched  atomic.Int64
	totalFound    atomic.Int64
	totalDuration atomic.Int64 // microseconds
}

// NewAddressService tạo mới AddressService. cache, ext và geo có thể nil.
func NewAddressService(m *matcher.Matcher, cache ICacheService, ext extractor.Extractor, geo geocoder.Geocoder, batchCfg BatchConfig, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if geo == nil {
		geo = geocoder.Noop{}
	}
	as := &AddressService{
		cache:     cache,
		extractor: ext,
		geocoder:  geo,
		logger:    logger,
		startTime: time.Now(),
		batchCfg:  batchCfg.withDefaults(),
		jobs:      newJobStore(),
	}
	as.matcher.Store(m)
	return as
}

// Matcher trả về matcher đang dùng
func (as *AddressService) Matcher() *matcher.Matcher {
	return as.matcher.Load()
}

// GazetteerVersion phiên bản gazetteer của matcher hiện tại
func (as *AddressService) GazetteerVersion() string {
	return as.Matcher().Gazetteer().Version()
}

// Reload thay gazetteer của matcher, giữ nguyên cấu hình. Trả về phiên bản cũ.
func (as *AddressService) Reload(g *gazetteer.Gazetteer) (string, error) {
	old := as.Matcher()
	m, err := matcher.New(g, old.Config(), as.logger)
	if err != nil {
		return "", fmt.Errorf("lỗi tạo matcher mới: %w", err)
	}
	as.matcher.Store(m)

	as.logger.Info("Gazetteer reloaded",
		zap.String("old_version", old.Gazetteer().Version()),
		zap.String("new_version", g.Version()),
		zap.Int("records", g.Len()))
	return old.Gazetteer().Version(), nil
}

// MatchAddress match một chuỗi địa chỉ. Trả về kết quả và cờ cache hit.
// Không tìm được địa chỉ không phải lỗi: Status = unmatched, MatchScore = 0.
func (as *AddressService) MatchAddress(ctx context.Context, query string, opts requests.MatchOptions) (*models.MatchResult, bool, error) {
	collapsed := normalizer.CollapseSpaces(query)
	if collapsed == "" {
		return nil, false, ErrEmptyQuery
	}

	start := time.Now()
	m := as.Matcher()
	version := m.Gazetteer().Version()
	// stage 1 dùng query đã gom khoảng trắng, stage 2 dùng query đã bỏ hậu tố;
	// hai query chỉ khác khoảng trắng cuối có thể cho kết quả khác nhau
	key := CacheKey(version, collapsed, m.NormalizeQuery(query))
	useCache := as.cache != nil && opts.CacheEnabled()

	var result *models.MatchResult
	cacheHit := false
	if useCache {
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache get failed, matching directly", zap.Error(err))
		} else if found {
			result, cacheHit = cached, true
			result.Query = query
		}
	}

	if result == nil {
		result = models.NewMatchResult(m.Match(query), version)
		if useCache {
			if err := as.cache.Set(ctx, key, result); err != nil {
				as.logger.Warn("Cache set failed", zap.Error(err))
			}
		}
	}

	if opts.Geocode && result.Found() {
		as.geocode(ctx, result)
	}

	as.record(result, time.Since(start))
	return result, cacheHit, nil
}

// geocode gắn tọa độ của chuỗi hiển thị; lỗi chỉ được log
func (as *AddressService) geocode(ctx context.Context, result *models.MatchResult) {
	g, err := as.geocoder.Geocode(ctx, result.MatchedAddressDisplay)
	switch {
	case err == nil:
		result.ApplyGeocode(g)
	case errors.Is(err, geocoder.ErrNotFound):
		as.logger.Debug("Geocoding found nothing", zap.String("address", result.MatchedAddressDisplay))
	default:
		as.logger.Warn("Geocoding failed", zap.String("address", result.MatchedAddressDisplay), zap.Error(err))
	}
}

// ProcessText trích thông tin bài báo bằng LLM, match địa chỉ rồi geocode nếu được yêu cầu.
// Bài báo không có địa chỉ vẫn trả về kết quả với Status = unmatched.
func (as *AddressService) ProcessText(ctx context.Context, text string, opts requests.MatchOptions) (*models.ProcessResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if as.extractor == nil {
		return nil, ErrExtractorDisabled
	}

	cleaned := normalizer.CleanText(text)
	info, err := as.extractor.Extract(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("lỗi trích xuất bài báo: %w", err)
	}
	if !info.HasAddress() {
		as.logger.Debug("Article has no address")
		return models.NewProcessResult(cleaned, info, nil), nil
	}

	match, _, err := as.MatchAddress(ctx, info.Address, opts)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return models.NewProcessResult(cleaned, info, nil), nil
		}
		return nil, err
	}
	return models.NewProcessResult(cleaned, info, match), nil
}

func (as *AddressService) record(result *models.MatchResult, d time.Duration) {
	as.totalMatched.Add(1)
	if result.Found() {
		as.totalFound.Add(1)
	}
	as.totalDuration.Add(d.Microseconds())
}

// GetStartTime lấy thời gian khởi động service
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

// ServiceStats thống kê match từ lúc khởi động
type ServiceStats struct {
	TotalProcessed      int64   `json:"total_processed"`
	MatchRate           float64 `json:"match_rate"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
	Uptime              string  `json:"uptime"`
}

// GetStats lấy thống kê service
func (as *AddressService) GetStats() ServiceStats {
	total := as.totalMatched.Load()
	stats := ServiceStats{
		TotalProcessed: total,
		Uptime:         time.Since(as.startTime).Round(time.Second).String(),
	}
	if total > 0 {
		stats.MatchRate = float64(as.totalFound.Load()) / float64(total)
		stats.AvgProcessingTimeMs = float64(as.totalDuration.Load()) / float64(total) / 1000
	}
	return stats
}
