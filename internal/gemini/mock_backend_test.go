package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"
)

// mockBackend is a scripted stand-in for the vendor SDK.
type mockBackend struct {
	generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	streamFunc   func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	chatFunc     func(ctx context.Context, model string, cfg *genai.GenerateContentConfig, history []*genai.Content) (chatBackend, error)
}

func (m *mockBackend) generateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, model, contents, cfg)
	}
	return textResponse("", ""), nil
}

func (m *mockBackend) generateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, model, contents, cfg)
	}
	return frames(nil, nil)
}

func (m *mockBackend) createChat(ctx context.Context, model string, cfg *genai.GenerateContentConfig, history []*genai.Content) (chatBackend, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, model, cfg, history)
	}
	return &mockChat{}, nil
}

type mockChat struct {
	sendFunc   func(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	streamFunc func(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

func (m *mockChat) sendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, parts...)
	}
	return textResponse("", ""), nil
}

func (m *mockChat) sendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error] {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, parts...)
	}
	return frames(nil, nil)
}

// textResponse builds a single-candidate vendor response.
func textResponse(text string, finish genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
			FinishReason: finish,
		}},
	}
}

// frames yields one frame per text, then finalErr if non-nil.
func frames(texts []string, finalErr error) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, t := range texts {
			if !yield(textResponse(t, ""), nil) {
				return
			}
		}
		if finalErr != nil {
			yield(nil, finalErr)
		}
	}
}
