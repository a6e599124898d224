package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/internal/gateway"
)

type HealthHandler struct {
	service *gateway.Service
}

func NewHealthHandler(service *gateway.Service) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Health(c *gin.Context) {
	st := h.service.Status()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ready":  st.Ready,
	})
}
