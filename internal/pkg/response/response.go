package response

import (
	"Attestor/internal/api/dto"
	"Attestor/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success 成功返回, data 原样序列化
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Fail 失败返回 {"error": message}
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// Error 按 ErrorMap 映射状态码, 未知错误记录日志后返回不透明的 500
func Error(c *gin.Context, err error) {
	for target, status := range service.ErrorMap {
		if errors.Is(err, target) {
			Fail(c, status, target.Error())
			return
		}
	}
	log.ErrorContext(c.Request.Context(), "Unhandled error", "path", c.Request.URL.Path, "err", err)
	Fail(c, http.StatusInternalServerError, service.UnExpectedError.Error())
}
