package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/internal/server/validator"
	"github.com/nulzo/gemini-bridge/pkg/api"
)

type GenerateHandler struct {
	service   *gateway.Service
	validator *validator.Validator
}

func NewGenerateHandler(service *gateway.Service, v *validator.Validator) *GenerateHandler {
	return &GenerateHandler{
		service:   service,
		validator: v,
	}
}

func (h *GenerateHandler) CreateGeneration(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	model, problem := resolveModelParam(req.Model)
	if problem != nil {
		_ = c.Error(problem)
		return
	}

	if req.Stream {
		h.handleStream(c, model, req.Prompt)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), model, req.Prompt)
	if err != nil {
		_ = c.Error(api.UpstreamError("Generation failed", err))
		return
	}

	c.JSON(http.StatusOK, &api.GenerateResponse{
		ID:           "gen-" + uuid.NewString(),
		Object:       "generation",
		Created:      time.Now().Unix(),
		Model:        result.Model,
		Text:         result.Text,
		FinishReason: result.FinishReason,
		Usage: &api.Usage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens,
		},
	})
}

func (h *GenerateHandler) handleStream(c *gin.Context, model catalog.ID, prompt string) {
	id := "gen-" + uuid.NewString()
	created := time.Now().Unix()

	ch := make(chan api.StreamResult)
	go func() {
		defer close(ch)

		err := h.service.GenerateStream(c.Request.Context(), model, prompt, func(text string) {
			ch <- api.StreamResult{Response: &api.GenerateResponse{
				ID:      id,
				Object:  "generation.chunk",
				Created: created,
				Text:    text,
			}}
		})
		if err != nil {
			ch <- api.StreamResult{Err: err}
		}
	}()

	writeSSE(c, ch)
}

// writeSSE drains a stream channel into an SSE response, closing it with a
// [DONE] sentinel. A mid-stream error becomes a final error frame.
func writeSSE(c *gin.Context, ch <-chan api.StreamResult) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for result := range ch {
		if result.Err != nil {
			errResp := api.GenerateResponse{
				Object:       "generation.chunk",
				FinishReason: "error",
				Error:        &api.ErrorResponse{Message: result.Err.Error()},
			}
			data, _ := json.Marshal(errResp)
			_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
			// stop streaming after an error frame
			return
		}

		if result.Response != nil {
			data, err := json.Marshal(result.Response)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
		}
	}

	_, _ = io.WriteString(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// resolveModelParam validates an optional request model identifier. Empty is
// fine; the gateway applies its default.
func resolveModelParam(model string) (catalog.ID, *api.Problem) {
	if model == "" {
		return "", nil
	}

	id := catalog.ID(model)
	if _, err := catalog.Resolve(id); err != nil {
		if errors.Is(err, catalog.ErrUnknownModel) {
			return "", api.BadRequestError(fmt.Sprintf("unknown model %q", model))
		}
		return "", api.BadRequestError(err.Error())
	}
	return id, nil
}
