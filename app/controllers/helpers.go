package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knachinen/darkmaptour-webscraping/app/responses"
)

// RequestIDKey khóa trong gin.Context chứa request id (do middleware gán)
const RequestIDKey = "request_id"

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: c.GetString(RequestIDKey),
	})
}

func success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, responses.SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
