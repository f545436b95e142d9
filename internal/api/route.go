package api

import (
	"Attestor/internal/api/middleware"
	"Attestor/internal/pkg/logger"
	"Attestor/internal/pkg/response"
	"Attestor/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, maxBodyBytes int64) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & Recovery
	r.Use(middleware.TraceMiddleware())
	logger.SetupGin(r)
	r.Use(gin.CustomRecoveryWithWriter(logger.LogWriter, func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "Panic recovered", "panic", recovered)
		response.Error(c, service.UnExpectedError)
	}))

	r.GET("/health", group.HealthHandler.Health)

	apiGroup := r.Group("/api/v1")
	apiGroup.Use(middleware.BodyLimitMiddleware(maxBodyBytes), middleware.AuditMiddleware())
	{
		videoGroup := apiGroup.Group("/videos")
		{
			videoGroup.POST("/submit", group.SubmissionHandler.Submit)
		}
	}

	return r
}
