package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knachinen/darkmaptour-webscraping/app/controllers"
	"github.com/knachinen/darkmaptour-webscraping/app/responses"
	"github.com/knachinen/darkmaptour-webscraping/helpers/utils"
	"go.uber.org/zap"
)

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/match", addressController.MatchAddress)
		}

		articles := v1.Group("/articles")
		{
			articles.POST("/process", addressController.ProcessArticle)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", addressController.SubmitJob)
			jobs.GET("/:jobID/status", addressController.GetJobStatus)
			jobs.GET("/:jobID/results", addressController.GetJobResults)
		}

		v1.GET("/gazetteer/search", adminController.SearchGazetteer)

		admin := v1.Group("/admin")
		{
			admin.POST("/seed", adminController.SeedGazetteer)
			admin.POST("/reload", adminController.ReloadGazetteer)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
			admin.POST("/indexes/build", adminController.BuildIndexes)
		}

		v1.GET("/health", addressController.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.Ready)
	router.GET("/live", addressController.Live)
}

// SetupAllRoutes thiết lập middleware và tất cả routes
func SetupAllRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, addressController)
	SetupAPIRoutes(router, addressController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "ROUTE_NOT_FOUND",
			Message:   c.Request.Method + " " + c.Request.URL.Path + " not found",
			Timestamp: time.Now().Format(time.RFC3339),
			RequestID: c.GetString(controllers.RequestIDKey),
		})
	})
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	if logger != nil {
		router.Use(accessLog(logger))
	}
}

// requestID dùng X-Request-ID của client hoặc sinh mới
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateUUID()
		}
		c.Set(controllers.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// accessLog ghi log mỗi request bằng zap
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(controllers.RequestIDKey)))
	}
}
