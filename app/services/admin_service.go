package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"github.com/knachinen/darkmaptour-webscraping/internal/search"
	"go.uber.org/zap"
)

var (
	// ErrSearchDisabled Meilisearch không được cấu hình
	ErrSearchDisabled = errors.New("services: meilisearch chưa được cấu hình")
	// ErrStoreDisabled MongoDB không được cấu hình
	ErrStoreDisabled = errors.New("services: gazetteer store chưa được cấu hình")
	// ErrInvalidGazetteer dữ liệu gazetteer không qua được validation
	ErrInvalidGazetteer = errors.New("services: gazetteer không hợp lệ")
)

// SourceMongo nguồn gazetteer là collection MongoDB
const SourceMongo = "mongo"

// GazetteerIndex index tìm kiếm gazetteer (Meilisearch)
type GazetteerIndex interface {
	BuildIndexes(rules *normalizer.RulesConfig) (int64, error)
	SeedData(g *gazetteer.Gazetteer) ([]int64, error)
	WaitForTasks(tasks []int64, timeout time.Duration) error
	SearchVersion(query, version, region string, limit int) ([]search.Hit, error)
}

// AdminService quản lý gazetteer, index và cache
type AdminService struct {
	addresses   *AddressService
	store       GazetteerStore
	index       GazetteerIndex
	cache       ICacheService
	source      string
	taskTimeout time.Duration
	logger      *zap.Logger
}

// GazetteerValidation kết quả validation gazetteer
type GazetteerValidation struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SeedResult kết quả seed gazetteer
type SeedResult struct {
	GazetteerVersion string `json:"gazetteer_version"`
	RecordsProcessed int    `json:"records_processed"`
	IndexesBuilt     int    `json:"indexes_built"`
	Reloaded         bool   `json:"reloaded"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Service          ServiceStats           `json:"service"`
	Cache            *CacheStats            `json:"cache,omitempty"`
	GazetteerVersion string                 `json:"gazetteer_version"`
	GazetteerRecords int                    `json:"gazetteer_records"`
	StoredRecords    int64                  `json:"stored_records"`
	MemoryUsage      map[string]interface{} `json:"memory_usage"`
	Goroutines       int                    `json:"goroutines"`
}

// NewAdminService tạo mới AdminService. store, index và cache có thể nil.
// source là nguồn gazetteer mặc định khi reload (đường dẫn file hoặc "mongo").
func NewAdminService(addresses *AddressService, store GazetteerStore, index GazetteerIndex, cache ICacheService, source string, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		addresses:   addresses,
		store:       store,
		index:       index,
		cache:       cache,
		source:      source,
		taskTimeout: 2 * time.Minute,
		logger:      logger,
	}
}

// ValidateGazetteer kiểm tra bản ghi trước khi seed.
// Thiếu lv0 hoặc không có cấp nào trong lv1..lv4 là lỗi; bản ghi trùng chỉ là cảnh báo.
func (as *AdminService) ValidateGazetteer(records []gazetteer.AddressRecord) *GazetteerValidation {
	v := &GazetteerValidation{}
	if len(records) == 0 {
		v.Errors = append(v.Errors, "Không có dữ liệu để validate")
		return v
	}

	seen := make(map[[gazetteer.NumLevels]string]int, len(records))
	for i, rec := range records {
		if rec.Lv0 == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Thiếu lv0 tại dòng %d", i))
		}
		if gazetteer.FullAddress(rec.Lv1, rec.Lv2, rec.Lv3, rec.Lv4) == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("lv1..lv4 đều rỗng tại dòng %d", i))
		}
		levels := rec.Levels()
		if first, dup := seen[levels]; dup {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Dòng %d trùng với dòng %d", i, first))
		} else {
			seen[levels] = i
		}
	}
	v.Passed = len(v.Errors) == 0
	return v
}

// LoadSource đọc gazetteer từ source: "mongo", đường dẫn file, hoặc rỗng = nguồn cấu hình
func (as *AdminService) LoadSource(ctx context.Context, source string) (*gazetteer.Gazetteer, error) {
	if source == "" {
		source = as.source
	}
	switch source {
	case "":
		return nil, errors.New("services: chưa cấu hình nguồn gazetteer")
	case SourceMongo:
		if as.store == nil {
			return nil, ErrStoreDisabled
		}
		return as.store.Load(ctx)
	}
	return gazetteer.LoadFile(ctx, source)
}

// SeedGazetteer lưu gazetteer vào MongoDB, đồng bộ Meilisearch nếu rebuildIndexes,
// và nạp vào matcher nếu reload
func (as *AdminService) SeedGazetteer(ctx context.Context, g *gazetteer.Gazetteer, rebuildIndexes, reload bool) (*SeedResult, error) {
	start := time.Now()
	if validation := as.ValidateGazetteer(g.Records()); !validation.Passed {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGazetteer, validation.Errors)
	}

	result := &SeedResult{GazetteerVersion: g.Version(), RecordsProcessed: g.Len()}

	if as.store != nil {
		if _, err := as.store.Replace(ctx, g); err != nil {
			return nil, err
		}
	}

	if rebuildIndexes {
		built, err := as.syncIndex(g)
		if err != nil {
			as.logger.Warn("Lỗi đồng bộ Meilisearch", zap.Error(err))
		}
		result.IndexesBuilt = built
	}

	if reload {
		if _, err := as.addresses.Reload(g); err != nil {
			return nil, err
		}
		result.Reloaded = true
		if err := as.InvalidateCache(ctx, g.Version()); err != nil {
			as.logger.Warn("Lỗi invalidate cache sau seed", zap.Error(err))
		}
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.logger.Info("Gazetteer seed completed",
		zap.String("gazetteer_version", result.GazetteerVersion),
		zap.Int("records", result.RecordsProcessed),
		zap.Int("indexes_built", result.IndexesBuilt),
		zap.Bool("reloaded", result.Reloaded),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))
	return result, nil
}

// syncIndex cấu hình index rồi nạp documents; trả về số bước thành công
func (as *AdminService) syncIndex(g *gazetteer.Gazetteer) (int, error) {
	if as.index == nil {
		return 0, ErrSearchDisabled
	}
	rules, err := normalizer.LoadRulesConfig()
	if err != nil {
		return 0, fmt.Errorf("lỗi load rules: %w", err)
	}

	built := 0
	settingsTask, err := as.index.BuildIndexes(rules)
	if err != nil {
		return built, err
	}
	built++

	tasks, err := as.index.SeedData(g)
	if err != nil {
		return built, err
	}
	if err := as.index.WaitForTasks(append([]int64{settingsTask}, tasks...), as.taskTimeout); err != nil {
		return built, err
	}
	return built + 1, nil
}

// Reload nạp lại gazetteer từ source và invalidate cache của phiên bản cũ
func (as *AdminService) Reload(ctx context.Context, source string) (oldVersion, newVersion string, err error) {
	g, err := as.LoadSource(ctx, source)
	if err != nil {
		return "", "", fmt.Errorf("lỗi load gazetteer: %w", err)
	}
	oldVersion, err = as.addresses.Reload(g)
	if err != nil {
		return "", "", err
	}
	if err := as.InvalidateCache(ctx, g.Version()); err != nil {
		as.logger.Warn("Lỗi invalidate cache sau reload", zap.Error(err))
	}
	return oldVersion, g.Version(), nil
}

// InvalidateCache xóa cache không thuộc version; rỗng = phiên bản hiện tại
func (as *AdminService) InvalidateCache(ctx context.Context, version string) error {
	if as.cache == nil {
		return nil
	}
	if version == "" {
		version = as.addresses.GazetteerVersion()
	}
	return as.cache.InvalidateByGazetteerVersion(ctx, version)
}

// BuildIndexes đồng bộ gazetteer hiện tại của matcher lên Meilisearch
func (as *AdminService) BuildIndexes(ctx context.Context) (int, error) {
	built, err := as.syncIndex(as.addresses.Matcher().Gazetteer())
	if err != nil {
		return built, fmt.Errorf("lỗi build Meilisearch indexes: %w", err)
	}
	as.logger.Info("All indexes built successfully", zap.Int("steps", built))
	return built, nil
}

// SearchGazetteer tra cứu gazetteer qua Meilisearch
func (as *AdminService) SearchGazetteer(query, region string, limit int) ([]search.Hit, error) {
	if as.index == nil {
		return nil, ErrSearchDisabled
	}
	return as.index.SearchVersion(query, as.addresses.GazetteerVersion(), region, limit)
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	g := as.addresses.Matcher().Gazetteer()
	stats := &SystemStats{
		Service:          as.addresses.GetStats(),
		GazetteerVersion: g.Version(),
		GazetteerRecords: g.Len(),
		Goroutines:       runtime.NumGoroutine(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Lỗi lấy cache stats", zap.Error(err))
		}
		stats.Cache = cacheStats
	}
	if as.store != nil {
		count, err := as.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("lỗi đếm gazetteer trong MongoDB: %w", err)
		}
		stats.StoredRecords = count
	}
	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
