package controllers

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/app/responses"
	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/knachinen/darkmaptour-webscraping/helpers/utils"
	"go.uber.org/zap"
)

// maxBatchItems giới hạn số item của một job
const maxBatchItems = 20000

// AddressController controller xử lý các request match địa chỉ và job batch
type AddressController struct {
	addressService *services.AddressService
	version        string
	logger         *zap.Logger
}

// NewAddressController tạo mới AddressController
func NewAddressController(addressService *services.AddressService, version string, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		version:        version,
		logger:         logger,
	}
}

// MatchAddress match một chuỗi địa chỉ với gazetteer
func (ac *AddressController) MatchAddress(c *gin.Context) {
	var req requests.MatchAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error())
		return
	}

	startTime := time.Now()
	result, cacheHit, err := ac.addressService.MatchAddress(c.Request.Context(), req.Query, req.Options)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			abortWithError(c, http.StatusBadRequest, "EMPTY_QUERY", err.Error())
			return
		}
		ac.logger.Error("Lỗi match địa chỉ", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "MATCH_ERROR", "Lỗi match địa chỉ: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.MatchAddressResponse{
		GazetteerVersion: result.GazetteerVersion,
		Result:           result,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// ProcessArticle trích thông tin bài báo, match và geocode địa chỉ
func (ac *AddressController) ProcessArticle(c *gin.Context) {
	var req requests.ProcessArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error())
		return
	}

	startTime := time.Now()
	result, err := ac.addressService.ProcessText(c.Request.Context(), req.Text, req.Options)
	switch {
	case errors.Is(err, services.ErrEmptyText):
		abortWithError(c, http.StatusBadRequest, "EMPTY_TEXT", err.Error())
		return
	case errors.Is(err, services.ErrExtractorDisabled):
		abortWithError(c, http.StatusServiceUnavailable, "EXTRACTOR_DISABLED", err.Error())
		return
	case err != nil:
		ac.logger.Error("Lỗi xử lý bài báo", zap.Error(err))
		abortWithError(c, http.StatusBadGateway, "EXTRACTION_ERROR", "Lỗi xử lý bài báo: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.ProcessArticleResponse{
		GazetteerVersion: ac.addressService.GazetteerVersion(),
		Result:           result,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// SubmitJob tạo job batch cho danh sách địa chỉ hoặc bài báo
func (ac *AddressController) SubmitJob(c *gin.Context) {
	var req requests.BatchJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request không hợp lệ: "+err.Error())
		return
	}

	kind, items := services.JobKindQueries, req.Queries
	switch {
	case len(req.Queries) > 0 && len(req.Texts) > 0:
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Chỉ được gửi queries hoặc texts")
		return
	case len(req.Texts) > 0:
		kind, items = services.JobKindTexts, req.Texts
	}
	if len(items) > maxBatchItems {
		abortWithError(c, http.StatusBadRequest, "TOO_MANY_ITEMS", "Số lượng item vượt quá giới hạn (20,000)")
		return
	}

	jobID, err := ac.addressService.SubmitBatch(kind, items, req.Options)
	switch {
	case errors.Is(err, services.ErrEmptyBatch):
		abortWithError(c, http.StatusBadRequest, "EMPTY_BATCH", err.Error())
		return
	case errors.Is(err, services.ErrExtractorDisabled):
		abortWithError(c, http.StatusServiceUnavailable, "EXTRACTOR_DISABLED", err.Error())
		return
	case err != nil:
		abortWithError(c, http.StatusInternalServerError, "JOB_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:            jobID,
		Kind:             string(kind),
		EstimatedSeconds: ac.addressService.EstimateBatchProcessingTime(kind, len(items)),
		Total:            len(items),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	if !utils.IsValidUUID(jobID) {
		abortWithError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID)
		return
	}

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              jobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Failed:             status.Failed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job; ?format=ndjson để stream, &gzip=1 để nén
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.jobResultsError(c, jobID, err)
		return
	}
	success(c, http.StatusOK, "Lấy kết quả thành công", results)
}

func (ac *AddressController) jobResultsError(c *gin.Context, jobID string, err error) {
	if errors.Is(err, services.ErrJobNotFinished) {
		abortWithError(c, http.StatusConflict, "JOB_NOT_FINISHED", "Job chưa hoàn thành: "+jobID)
		return
	}
	abortWithError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Không tìm thấy job: "+jobID)
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		ac.jobResultsError(c, jobID, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{ResponseWriter: c.Writer, gzWriter: gzWriter}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Lỗi encode NDJSON", zap.Error(err))
			return
		}
		writer.Flush()
	}
}

// HealthCheck kiểm tra sức khỏe service
func (ac *AddressController) HealthCheck(c *gin.Context) {
	uptime := time.Since(ac.addressService.GetStartTime())

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.Round(time.Second).String(),
		Version:   ac.version,
		Services: map[string]string{
			"matcher":           "healthy",
			"gazetteer_version": ac.addressService.GazetteerVersion(),
		},
	})
}

// Ready sẵn sàng nhận request khi gazetteer đã có dữ liệu
func (ac *AddressController) Ready(c *gin.Context) {
	n := ac.addressService.Matcher().Gazetteer().Len()
	if n == 0 {
		abortWithError(c, http.StatusServiceUnavailable, "NOT_READY", "Gazetteer chưa có dữ liệu")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "gazetteer_records": n})
}

// Live process còn sống
func (ac *AddressController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
