package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/topupstore/pkg/clock"
	"github.com/xiebiao/topupstore/pkg/response"
)

// HealthHandler 健康检查
type HealthHandler struct {
	clock clock.Clock
}

func NewHealthHandler(clk clock.Clock) *HealthHandler {
	return &HealthHandler{clock: clk}
}

// Health 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "ok",
		"timestamp": h.clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}
