package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/nulzo/gemini-bridge/internal/gemini"
	"github.com/nulzo/gemini-bridge/pkg/api"
)

type ModelHandler struct{}

func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

// ListModels returns the catalog with the generation defaults each entry
// derives, for picker UIs.
func (h *ModelHandler) ListModels(c *gin.Context) {
	entries := catalog.List()

	models := make([]api.Model, 0, len(entries))
	for _, e := range entries {
		gen := gemini.DeriveGeneration(e.Family)
		models = append(models, api.Model{
			ID:         string(e.ID),
			VendorName: e.VendorName,
			Family:     string(e.Family),
			Latest:     e.IsLatest(),
			Default:    e.ID == catalog.Default,
			Generation: api.GenerationDefaults{
				Temperature:     gen.Temperature,
				TopK:            gen.TopK,
				TopP:            gen.TopP,
				MaxOutputTokens: gen.MaxOutputTokens,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": models})
}
