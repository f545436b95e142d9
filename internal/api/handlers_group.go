package api

import "Attestor/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	HealthHandler     *handler.HealthHandler
	SubmissionHandler *handler.SubmissionHandler
}
