package api

// GenerateRequest is the payload for one-shot and streamed text generation.
type GenerateRequest struct {
	// Prompt is the text sent to the model.
	Prompt string `json:"prompt" binding:"required"`

	// Model is a catalog identifier (e.g. "flash-2.0"). Empty selects the
	// configured default. Note the gateway binds its model on first use; a
	// different identifier on a later request does not rebind it.
	Model string `json:"model,omitempty"`

	// Enable streaming, defaults to `false` (empty)
	Stream bool `json:"stream,omitempty"`
}

// ChatRequest carries an ordered conversation and asks for the next turn.
type ChatRequest struct {
	// message array is required, dive in and deep validate
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`

	Model string `json:"model,omitempty"`

	Stream bool `json:"stream,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user model"`
	Content string `json:"content" binding:"required"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)
