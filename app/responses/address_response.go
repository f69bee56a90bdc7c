package responses

import (
	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/internal/search"
)

// MatchAddressResponse response match địa chỉ đơn lẻ
type MatchAddressResponse struct {
	GazetteerVersion string              `json:"gazetteer_version"`  // Phiên bản gazetteer
	Result           *models.MatchResult `json:"result"`             // Kết quả match
	ProcessingTimeMs int64               `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                `json:"cache_hit"`          // Có hit cache không
}

// ProcessArticleResponse response xử lý bài báo
type ProcessArticleResponse struct {
	GazetteerVersion string                `json:"gazetteer_version"`
	Result           *models.ProcessResult `json:"result"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
}

// BatchJobResponse response tạo job batch
type BatchJobResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	Kind             string `json:"kind"`              // queries | texts
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	Total            int    `json:"total"`             // Tổng số item
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`              // ID của job
	Status             string  `json:"status"`              // Trạng thái job
	Progress           float64 `json:"progress"`            // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`           // Số item đã xử lý
	Failed             int     `json:"failed"`              // Số item lỗi
	Total              int     `json:"total"`               // Tổng số item
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`             // Thông báo
}

// JobStatus constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// GazetteerSearchResponse response tra cứu gazetteer qua Meilisearch
type GazetteerSearchResponse struct {
	Query  string       `json:"query"`
	Region string       `json:"region,omitempty"`
	Hits   []search.Hit `json:"hits"`
	Total  int          `json:"total"`
}

// SeedGazetteerResponse response seed gazetteer
type SeedGazetteerResponse struct {
	GazetteerVersion string   `json:"gazetteer_version"`
	ValidationPassed bool     `json:"validation_passed"`            // Validation có pass không
	Warnings         []string `json:"warnings,omitempty"`           // Cảnh báo
	RecordsProcessed int      `json:"records_processed,omitempty"`  // Số bản ghi đã xử lý
	IndexesBuilt     int      `json:"indexes_built,omitempty"`      // Số indexes đã build
	Reloaded         bool     `json:"reloaded"`                     // Matcher đã dùng gazetteer mới chưa
	ProcessingTimeMs int64    `json:"processing_time_ms,omitempty"` // Thời gian xử lý (ms)
	DryRun           bool     `json:"dry_run"`                      // Có phải dry run không
	Message          string   `json:"message"`                      // Thông báo
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`                // Mã lỗi
	Message   string      `json:"message"`              // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"`    // Chi tiết lỗi
	Timestamp string      `json:"timestamp"`            // Thời gian xảy ra lỗi
	RequestID string      `json:"request_id,omitempty"` // ID của request
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`        // Có thành công không
	Message   string      `json:"message"`        // Thông báo
	Data      interface{} `json:"data,omitempty"` // Dữ liệu
	Timestamp string      `json:"timestamp"`      // Thời gian
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status    string            `json:"status"`    // Trạng thái sức khỏe
	Timestamp string            `json:"timestamp"` // Thời gian kiểm tra
	Uptime    string            `json:"uptime"`    // Thời gian hoạt động
	Version   string            `json:"version"`   // Phiên bản
	Services  map[string]string `json:"services"`  // Trạng thái các service
}

// SystemStatsResponse response thống kê hệ thống
type SystemStatsResponse struct {
	CacheHitRate        float64       `json:"cache_hit_rate"`         // Tỷ lệ hit cache
	MatchRate           float64       `json:"match_rate"`             // Tỷ lệ query tìm được địa chỉ
	AvgProcessingTimeMs float64       `json:"avg_processing_time_ms"` // Thời gian xử lý trung bình (ms)
	TotalProcessed      int64         `json:"total_processed"`        // Tổng số query đã match
	GazetteerVersion    string        `json:"gazetteer_version"`
	GazetteerRecords    int           `json:"gazetteer_records"`
	SystemInfo          SystemInfo    `json:"system_info"`    // Thông tin hệ thống
	DatabaseStats       DatabaseStats `json:"database_stats"` // Thống kê database
}

// SystemInfo thông tin hệ thống
type SystemInfo struct {
	Version     string                 `json:"version"`      // Phiên bản
	Environment string                 `json:"environment"`  // Môi trường
	Uptime      string                 `json:"uptime"`       // Thời gian hoạt động
	MemoryUsage map[string]interface{} `json:"memory_usage"` // Sử dụng memory
	Goroutines  int                    `json:"goroutines"`
}

// DatabaseStats thống kê database
type DatabaseStats struct {
	GazetteerRecords int64 `json:"gazetteer_records"` // Số bản ghi gazetteer trong MongoDB
	AddressCache     int64 `json:"address_cache"`     // Số lượng address cache
}
