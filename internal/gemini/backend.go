package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// backend is the slice of the vendor SDK the client touches. Narrowing it to
// an interface keeps the adapter testable against a scripted fake.
type backend interface {
	generateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	createChat(ctx context.Context, model string, cfg *genai.GenerateContentConfig, history []*genai.Content) (chatBackend, error)
}

// chatBackend mirrors the vendor chat object. The vendor owns all turn state.
type chatBackend interface {
	sendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	sendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

type genaiBackend struct {
	client *genai.Client
}

func newGenaiBackend(ctx context.Context, apiKey, baseURL string) (*genaiBackend, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &genaiBackend{client: client}, nil
}

func (b *genaiBackend) generateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return b.client.Models.GenerateContent(ctx, model, contents, cfg)
}

func (b *genaiBackend) generateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return b.client.Models.GenerateContentStream(ctx, model, contents, cfg)
}

func (b *genaiBackend) createChat(ctx context.Context, model string, cfg *genai.GenerateContentConfig, history []*genai.Content) (chatBackend, error) {
	chat, err := b.client.Chats.Create(ctx, model, cfg, history)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return &genaiChat{chat: chat}, nil
}

type genaiChat struct {
	chat *genai.Chat
}

func (c *genaiChat) sendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return c.chat.SendMessage(ctx, parts...)
}

func (c *genaiChat) sendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error] {
	return c.chat.SendMessageStream(ctx, parts...)
}
