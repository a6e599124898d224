package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Turn is one prior conversational exchange used to seed a chat session.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// Chat is a conversational session. The vendor object owns the turn history;
// the Client does not track sessions after creating them, and later Client
// use has no effect on sessions already handed out.
type Chat interface {
	// Send appends a user message and blocks for the model's reply.
	Send(ctx context.Context, message string) (*Result, error)

	// SendStream appends a user message and streams the reply through
	// onChunk, one fragment per call in arrival order.
	SendStream(ctx context.Context, message string, onChunk func(text string)) error
}

// StartChat creates a session seeded with the optional prior turns, bound to
// the client's generation and safety configuration.
func (c *Client) StartChat(ctx context.Context, history []Turn) (Chat, error) {
	chat, err := c.backend.createChat(ctx, c.entry.VendorName, c.genCfg, historyContents(history))
	if err != nil {
		return nil, err
	}

	return &session{
		client: c,
		chat:   chat,
	}, nil
}

func historyContents(history []Turn) []*genai.Content {
	if len(history) == 0 {
		return nil
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := t.Role
		if role == "" {
			role = genai.RoleUser
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	return contents
}

type session struct {
	client *Client
	chat   chatBackend
}

func (s *session) Send(ctx context.Context, message string) (*Result, error) {
	ctx, cancel := s.client.opContext(ctx)
	defer cancel()

	resp, err := s.chat.sendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return nil, fmt.Errorf("chat send failed: %w", err)
	}

	return s.client.toResult(resp)
}

func (s *session) SendStream(ctx context.Context, message string, onChunk func(text string)) error {
	ctx, cancel := s.client.opContext(ctx)
	defer cancel()

	for resp, err := range s.chat.sendMessageStream(ctx, genai.Part{Text: message}) {
		if err != nil {
			return fmt.Errorf("chat stream failed: %w", err)
		}
		if text := chunkText(resp); text != "" {
			onChunk(text)
		}
	}

	return nil
}
