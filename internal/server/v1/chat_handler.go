package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/internal/gemini"
	"github.com/nulzo/gemini-bridge/internal/server/validator"
	"github.com/nulzo/gemini-bridge/pkg/api"
)

type ChatHandler struct {
	service   *gateway.Service
	validator *validator.Validator
}

func NewChatHandler(service *gateway.Service, v *validator.Validator) *ChatHandler {
	return &ChatHandler{
		service:   service,
		validator: v,
	}
}

// CreateCompletion seeds a chat session with every message except the last,
// then sends the last one. The session lives for this request only; the
// conversation state callers keep is the message array they send.
func (h *ChatHandler) CreateCompletion(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	model, problem := resolveModelParam(req.Model)
	if problem != nil {
		_ = c.Error(problem)
		return
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role != api.RoleUser {
		_ = c.Error(api.BadRequestError("last message must have role \"user\""))
		return
	}

	history := make([]gemini.Turn, 0, len(req.Messages)-1)
	for _, m := range req.Messages[:len(req.Messages)-1] {
		history = append(history, gemini.Turn{Role: m.Role, Text: m.Content})
	}

	chat, err := h.service.StartChat(c.Request.Context(), model, history)
	if err != nil {
		_ = c.Error(api.UpstreamError("Failed to start chat session", err))
		return
	}

	if req.Stream {
		h.handleStream(c, chat, last.Content)
		return
	}

	result, err := chat.Send(c.Request.Context(), last.Content)
	if err != nil {
		_ = c.Error(api.UpstreamError("Chat completion failed", err))
		return
	}

	c.JSON(http.StatusOK, &api.GenerateResponse{
		ID:           "chat-" + uuid.NewString(),
		Object:       "chat.completion",
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

func (h *ChatHandler) handleStream(c *gin.Context, chat gemini.Chat, message string) {
	id := "chat-" + uuid.NewString()
	created := time.Now().Unix()

	ch := make(chan api.StreamResult)
	go func() {
		defer close(ch)

		err := chat.SendStream(c.Request.Context(), message, func(text string) {
			ch <- api.StreamResult{Response: &api.GenerateResponse{
				ID:      id,
				Object:  "chat.completion.chunk",
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
