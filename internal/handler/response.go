package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/logger"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailureResponse 按错误分类返回对应的状态码
func FailureResponse(c *gin.Context, err error) {
	var ce *funding.ContributionError
	if !errors.As(err, &ce) {
		logger.Error("Unexpected error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	switch ce.Kind {
	case funding.KindValidationError:
		ErrorResponse(c, http.StatusBadRequest, ce.Reason)
	case funding.KindNotFoundError:
		ErrorResponse(c, http.StatusNotFound, ce.Reason)
	default:
		logger.Error("Storage failure on %s %s: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusServiceUnavailable, ce.Reason)
	}
}
