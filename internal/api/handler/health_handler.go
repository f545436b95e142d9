package handler

import (
	"Attestor/internal/api/dto"
	"Attestor/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (s *HealthHandler) Health(c *gin.Context) {
	response.Success(c, dto.HealthResponse{Status: "ok"})
}
