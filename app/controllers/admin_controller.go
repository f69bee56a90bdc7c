package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/app/responses"
	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"go.uber.org/zap"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService *services.AdminService
	version      string
	environment  string
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, version, environment string, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		version:      version,
		environment:  environment,
		logger:       logger,
	}
}

// SeedGazetteer seed gazetteer từ records trong body hoặc file trên server.
// ?dry_run=true chỉ validate.
func (ac *AdminController) SeedGazetteer(c *gin.Context) {
	var req requests.SeedGazetteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error())
		return
	}

	var g *gazetteer.Gazetteer
	switch {
	case len(req.Records) > 0:
		g = gazetteer.New(req.Records)
	case req.Path != "":
		loaded, err := ac.adminService.LoadSource(c.Request.Context(), req.Path)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "LOAD_ERROR", "Lỗi đọc gazetteer: "+err.Error())
			return
		}
		g = loaded
	default:
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Cần records hoặc path")
		return
	}

	if c.Query("dry_run") == "true" {
		validation := ac.adminService.ValidateGazetteer(g.Records())
		c.JSON(http.StatusOK, responses.SeedGazetteerResponse{
			GazetteerVersion: g.Version(),
			ValidationPassed: validation.Passed,
			Warnings:         append(validation.Errors, validation.Warnings...),
			RecordsProcessed: g.Len(),
			DryRun:           true,
			Message:          "Validation hoàn thành",
		})
		return
	}

	result, err := ac.adminService.SeedGazetteer(c.Request.Context(), g, req.RebuildIndexes, req.Reload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidGazetteer) {
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		ac.logger.Error("Lỗi seed gazetteer", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "SEED_ERROR", "Lỗi seed gazetteer: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.SeedGazetteerResponse{
		GazetteerVersion: result.GazetteerVersion,
		ValidationPassed: true,
		RecordsProcessed: result.RecordsProcessed,
		IndexesBuilt:     result.IndexesBuilt,
		Reloaded:         result.Reloaded,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Message:          "Seed gazetteer thành công",
	})
}

// ReloadGazetteer nạp lại gazetteer cho matcher
func (ac *AdminController) ReloadGazetteer(c *gin.Context) {
	var req requests.ReloadGazetteerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error())
			return
		}
	}

	startTime := time.Now()
	oldVersion, newVersion, err := ac.adminService.Reload(c.Request.Context(), req.Source)
	if err != nil {
		ac.logger.Error("Lỗi reload gazetteer", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "RELOAD_ERROR", err.Error())
		return
	}

	success(c, http.StatusOK, "Reload gazetteer thành công", gin.H{
		"old_version":        oldVersion,
		"gazetteer_version":  newVersion,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	})
}

// InvalidateCache xóa cache không thuộc gazetteer_version (mặc định phiên bản hiện tại)
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	version := c.Query("gazetteer_version")

	startTime := time.Now()
	if err := ac.adminService.InvalidateCache(c.Request.Context(), version); err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "INVALIDATE_ERROR", "Lỗi invalidate cache: "+err.Error())
		return
	}

	success(c, http.StatusOK, "Invalidate cache thành công", gin.H{
		"gazetteer_version":  version,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Lỗi lấy stats", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STATS_ERROR", "Lỗi lấy stats: "+err.Error())
		return
	}

	resp := responses.SystemStatsResponse{
		MatchRate:           stats.Service.MatchRate,
		AvgProcessingTimeMs: stats.Service.AvgProcessingTimeMs,
		TotalProcessed:      stats.Service.TotalProcessed,
		GazetteerVersion:    stats.GazetteerVersion,
		GazetteerRecords:    stats.GazetteerRecords,
		SystemInfo: responses.SystemInfo{
			Version:     ac.version,
			Environment: ac.environment,
			Uptime:      stats.Service.Uptime,
			MemoryUsage: stats.MemoryUsage,
			Goroutines:  stats.Goroutines,
		},
		DatabaseStats: responses.DatabaseStats{GazetteerRecords: stats.StoredRecords},
	}
	if stats.Cache != nil {
		resp.CacheHitRate = stats.Cache.HitRate
		resp.DatabaseStats.AddressCache = stats.Cache.TotalItems
	}
	c.JSON(http.StatusOK, resp)
}

// BuildIndexes đồng bộ gazetteer hiện tại lên Meilisearch
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	startTime := time.Now()

	built, err := ac.adminService.BuildIndexes(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrSearchDisabled) {
			status = http.StatusServiceUnavailable
		}
		ac.logger.Error("Lỗi build indexes", zap.Error(err))
		abortWithError(c, status, "BUILD_ERROR", err.Error())
		return
	}

	success(c, http.StatusOK, "Build indexes thành công", gin.H{
		"indexes_built":      built,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	})
}

// SearchGazetteer tra cứu gazetteer: ?q=...&region=...&limit=...
func (ac *AdminController) SearchGazetteer(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		abortWithError(c, http.StatusBadRequest, "MISSING_QUERY", "Thiếu tham số q")
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 0 {
			abortWithError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit không hợp lệ")
			return
		}
		limit = l
	}
	region := c.Query("region")

	hits, err := ac.adminService.SearchGazetteer(query, region, limit)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrSearchDisabled) {
			status = http.StatusServiceUnavailable
		}
		abortWithError(c, status, "SEARCH_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.GazetteerSearchResponse{
		Query:  query,
		Region: region,
		Hits:   hits,
		Total:  len(hits),
	})
}
