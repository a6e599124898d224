package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/pkg/api"
)

type StatusHandler struct {
	service *gateway.Service
}

func NewStatusHandler(service *gateway.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// Status exposes the gateway's readiness surface so clients can render
// initializing / ready / error states without issuing a generation.
func (h *StatusHandler) Status(c *gin.Context) {
	st := h.service.Status()
	c.JSON(http.StatusOK, api.StatusResponse{
		Ready:   st.Ready,
		Loading: st.Loading,
		Model:   st.Model,
		Error:   st.Err,
	})
}
