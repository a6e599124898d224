// Package gemini wraps the Gemini SDK behind the three operations this
// service needs: one-shot generation, streamed generation, and chat-session
// creation. A Client binds one model, one credential, and one set of
// generation and safety parameters for its entire lifetime; changing any of
// them means constructing a new Client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nulzo/gemini-bridge/internal/catalog"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	// ErrMissingAPIKey is returned at construction when no credential is
	// supplied. Fatal for that client; nothing is retried.
	ErrMissingAPIKey = errors.New("gemini: api key is required")

	// ErrEmptyResponse is returned when the vendor answers without any
	// candidate content, typically after a safety block.
	ErrEmptyResponse = errors.New("gemini: empty response from model")
)

// Result carries the text of a completed generation.
type Result struct {
	Text         string
	Model        string
	FinishReason string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the service adapter over the vendor SDK. Safe for concurrent use;
// all fields are set at construction and never mutated.
type Client struct {
	backend backend
	entry   catalog.Entry
	gen     GenerationConfig
	genCfg  *genai.GenerateContentConfig
	timeout time.Duration
	logger  *zap.Logger
}

// New constructs a Client and eagerly builds the vendor handle. An empty API
// key fails before any vendor state exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = catalog.Default
	}
	entry, err := catalog.Resolve(model)
	if err != nil {
		return nil, err
	}

	be, err := newGenaiBackend(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return newClient(entry, cfg, be), nil
}

// newClient finishes construction once a backend exists. Split out so tests
// can wire a scripted backend.
func newClient(entry catalog.Entry, cfg Config, be backend) *Client {
	gen := DeriveGeneration(entry.Family)
	if cfg.Generation != nil {
		gen = *cfg.Generation
	}

	safety := cfg.Safety
	if safety == nil {
		safety = DefaultSafetySettings()
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	} else if timeout < 0 {
		timeout = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		backend: be,
		entry:   entry,
		gen:     gen,
		genCfg: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(gen.Temperature),
			TopK:            genai.Ptr(float32(gen.TopK)),
			TopP:            genai.Ptr(gen.TopP),
			MaxOutputTokens: gen.MaxOutputTokens,
			SafetySettings:  convertSafetySettings(safety),
		},
		timeout: timeout,
		logger:  logger,
	}
}

// ModelName returns the bound vendor model string.
func (c *Client) ModelName() string {
	return c.entry.VendorName
}

// Generation returns the decoding parameters the client was built with.
func (c *Client) Generation() GenerationConfig {
	return c.gen
}

// UsesLatestFamily reports whether the bound model belongs to the newest
// family in the catalog.
func (c *Client) UsesLatestFamily() bool {
	return c.entry.IsLatest()
}

// Generate performs a single blocking request/response round trip.
func (c *Client) Generate(ctx context.Context, prompt string) (*Result, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.backend.generateContent(ctx, c.entry.VendorName, genai.Text(prompt), c.genCfg)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result, err := c.toResult(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("generation complete",
		zap.String("model", c.entry.VendorName),
		zap.Duration("latency", time.Since(start)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// GenerateStream requests a streamed completion and invokes onChunk once per
// text fragment in arrival order, zero or more times. A mid-stream failure is
// returned after the chunks already delivered; cancelling ctx aborts the
// stream the same way.
func (c *Client) GenerateStream(ctx context.Context, prompt string, onChunk func(text string)) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	for resp, err := range c.backend.generateContentStream(ctx, c.entry.VendorName, genai.Text(prompt), c.genCfg) {
		if err != nil {
			return fmt.Errorf("stream failed: %w", err)
		}
		if text := chunkText(resp); text != "" {
			onChunk(text)
		}
	}

	return nil
}

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// toResult flattens a vendor response into a Result.
func (c *Client) toResult(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	result := &Result{Model: c.entry.VendorName}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
		if candidate.FinishReason != "" {
			result.FinishReason = string(candidate.FinishReason)
		}
	}
	result.Text = text.String()

	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return result, nil
}

// chunkText extracts the text fragment carried by one streamed frame.
func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
	}
	return text.String()
}
