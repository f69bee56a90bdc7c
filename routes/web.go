package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Korean Address Matcher Service",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Address Matcher API v1",
				"endpoints": map[string]string{
					"match":            "POST /v1/addresses/match",
					"process_article":  "POST /v1/articles/process",
					"submit_job":       "POST /v1/jobs",
					"job_status":       "GET /v1/jobs/:jobID/status",
					"job_results":      "GET /v1/jobs/:jobID/results?format=ndjson&gzip=1",
					"gazetteer_search": "GET /v1/gazetteer/search?q=",
					"admin_seed":       "POST /v1/admin/seed",
					"admin_reload":     "POST /v1/admin/reload",
					"admin_invalidate": "POST /v1/admin/cache/invalidate",
					"admin_stats":      "GET /v1/admin/stats",
					"admin_indexes":    "POST /v1/admin/indexes/build",
					"health":           "GET /health",
				},
			})
		})
	}
}
