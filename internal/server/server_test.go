package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/nulzo/gemini-bridge/internal/config"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/internal/gemini"
	"github.com/nulzo/gemini-bridge/internal/server"
	"github.com/nulzo/gemini-bridge/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGenerator satisfies gateway.Generator without touching the vendor SDK.
type stubGenerator struct {
	model  string
	result *gemini.Result
	chunks []string
	err    error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (*gemini.Result, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *stubGenerator) GenerateStream(ctx context.Context, prompt string, onChunk func(text string)) error {
	for _, chunk := range g.chunks {
		onChunk(chunk)
	}
	return g.err
}

func (g *stubGenerator) StartChat(ctx context.Context, history []gemini.Turn) (gemini.Chat, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &stubChat{gen: g}, nil
}

func (g *stubGenerator) ModelName() string      { return g.model }
func (g *stubGenerator) UsesLatestFamily() bool { return true }

type stubChat struct {
	gen *stubGenerator
}

func (c *stubChat) Send(ctx context.Context, message string) (*gemini.Result, error) {
	return c.gen.result, nil
}

func (c *stubChat) SendStream(ctx context.Context, message string, onChunk func(text string)) error {
	for _, chunk := range c.gen.chunks {
		onChunk(chunk)
	}
	return nil
}

func testConfig(apiKeys []string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:    "8080",
			Env:     "test",
			APIKeys: apiKeys,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
		},
	}
}

func newTestHandler(t *testing.T, gen gateway.Generator, apiKeys []string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	factory := func(ctx context.Context, model catalog.ID) (gateway.Generator, error) {
		if gen == nil {
			return nil, errors.New("generator unavailable")
		}
		return gen, nil
	}

	logger := zap.NewNop()
	service := gateway.New(logger, factory)
	return server.New(testConfig(apiKeys), logger, service).Handler()
}

func postJSON(handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)
	return w
}

func TestCreateGeneration(t *testing.T) {
	gen := &stubGenerator{
		model: "gemini-2.0-flash",
		result: &gemini.Result{
			Text:             "Hello there",
			Model:            "gemini-2.0-flash",
			FinishReason:     "STOP",
			PromptTokens:     4,
			CompletionTokens: 3,
			TotalTokens:      7,
		},
	}
	handler := newTestHandler(t, gen, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "generation", resp.Object)
	assert.Equal(t, "Hello there", resp.Text)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestCreateGeneration_MissingPrompt(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{}, nil)

	w := postJSON(handler, "/v1/generate", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation Error")
	assert.Contains(t, w.Body.String(), "prompt")
}

func TestCreateGeneration_UnknownModel(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{}, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi", Model: "gpt-4o"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown model")
}

func TestCreateGeneration_UpstreamFailure(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{err: errors.New("quota exceeded")}, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Generation failed")
}

func TestCreateGeneration_Stream(t *testing.T) {
	gen := &stubGenerator{
		model:  "gemini-2.0-flash",
		chunks: []string{"Hel", "lo"},
	}
	handler := newTestHandler(t, gen, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi", Stream: true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "data: {")
	assert.Contains(t, body, "Hel")
	assert.Contains(t, body, "lo")
	assert.Contains(t, body, "generation.chunk")
	assert.Contains(t, body, "[DONE]")
}

func TestCreateGeneration_StreamError(t *testing.T) {
	gen := &stubGenerator{
		model:  "gemini-2.0-flash",
		chunks: []string{"partial"},
		err:    errors.New("stream cut"),
	}
	handler := newTestHandler(t, gen, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi", Stream: true})

	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "partial")
	assert.Contains(t, body, `"finish_reason":"error"`)
	assert.Contains(t, body, "stream cut")
	assert.NotContains(t, body, "[DONE]")
}

func TestChatCompletion(t *testing.T) {
	gen := &stubGenerator{
		model: "gemini-2.0-flash",
		result: &gemini.Result{
			Text:         "General Kenobi",
			Model:        "gemini-2.0-flash",
			FinishReason: "STOP",
		},
	}
	handler := newTestHandler(t, gen, nil)

	w := postJSON(handler, "/v1/chat/completions", api.ChatRequest{
		Messages: []api.ChatMessage{
			{Role: api.RoleUser, Content: "Hello there"},
			{Role: api.RoleModel, Content: "Hi"},
			{Role: api.RoleUser, Content: "Say the line"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "General Kenobi", resp.Text)
}

func TestChatCompletion_LastMessageNotUser(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{}, nil)

	w := postJSON(handler, "/v1/chat/completions", api.ChatRequest{
		Messages: []api.ChatMessage{
			{Role: api.RoleUser, Content: "Hi"},
			{Role: api.RoleModel, Content: "Hello"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "last message")
}

func TestChatCompletion_Stream(t *testing.T) {
	gen := &stubGenerator{
		model:  "gemini-2.0-flash",
		chunks: []string{"Gen", "eral"},
	}
	handler := newTestHandler(t, gen, nil)

	w := postJSON(handler, "/v1/chat/completions", api.ChatRequest{
		Messages: []api.ChatMessage{{Role: api.RoleUser, Content: "Say the line"}},
		Stream:   true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "chat.completion.chunk")
	assert.Contains(t, body, "Gen")
	assert.Contains(t, body, "eral")
	assert.Contains(t, body, "[DONE]")
}

func TestAuth(t *testing.T) {
	gen := &stubGenerator{
		model:  "gemini-2.0-flash",
		result: &gemini.Result{Text: "ok", Model: "gemini-2.0-flash"},
	}
	handler := newTestHandler(t, gen, []string{"sk-bridge-test"})

	body, _ := json.Marshal(api.GenerateRequest{Prompt: "Hi"})

	// No credentials at all.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong key.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sk-wrong")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid key.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sk-bridge-test")
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_HealthStaysPublic(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{}, []string{"sk-bridge-test"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_TripsOnBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(nil)
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}

	logger := zap.NewNop()
	service := gateway.New(logger, func(ctx context.Context, model catalog.ID) (gateway.Generator, error) {
		return &stubGenerator{model: "gemini-2.0-flash"}, nil
	})
	handler := server.New(cfg, logger, service).Handler()

	// First request spends the single burst token.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/models", nil)
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/v1/models", nil)
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// Health sits outside the limited group.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListModels(t *testing.T) {
	handler := newTestHandler(t, &stubGenerator{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/models", nil)
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []api.Model `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, len(catalog.List()))

	defaults := 0
	for _, m := range resp.Data {
		if m.Default {
			defaults++
			assert.Equal(t, string(catalog.Default), m.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestStatus_TracksBinding(t *testing.T) {
	gen := &stubGenerator{
		model:  "gemini-2.0-flash",
		result: &gemini.Result{Text: "ok", Model: "gemini-2.0-flash"},
	}
	handler := newTestHandler(t, gen, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/status", nil)
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var before api.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	assert.False(t, before.Ready)

	// First operation binds the shared client.
	postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi"})

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/v1/status", nil)
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var after api.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.True(t, after.Ready)
	assert.Equal(t, "gemini-2.0-flash", after.Model)
}

func TestStatus_SurfacesFactoryError(t *testing.T) {
	handler := newTestHandler(t, nil, nil)

	w := postJSON(handler, "/v1/generate", api.GenerateRequest{Prompt: "Hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w2 := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/status", nil)
	handler.ServeHTTP(w2, req)

	var st api.StatusResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &st))
	assert.False(t, st.Ready)
	assert.Contains(t, st.Error, "generator unavailable")
}
