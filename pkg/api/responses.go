package api

// GenerateResponse is returned by the generate and chat endpoints. For
// streamed requests each SSE frame carries one of these with Object set to
// the chunk variant and Text holding a single fragment.
type GenerateResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"` // "generation" or "generation.chunk"
	Created int64  `json:"created"`
	Model   string `json:"model"`

	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`

	Usage *Usage `json:"usage,omitempty"`

	Error *ErrorResponse `json:"error,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorResponse struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// StreamResult is the internal hand-off between a running generation and the
// SSE writer. Exactly one of Response or Err is set.
type StreamResult struct {
	Response *GenerateResponse
	Err      error
}

// Model describes one catalog entry for picker UIs.
type Model struct {
	ID         string `json:"id"`
	VendorName string `json:"vendor_name"`
	Family     string `json:"family"`
	Latest     bool   `json:"latest"`
	Default    bool   `json:"default"`

	Generation GenerationDefaults `json:"generation"`
}

// GenerationDefaults are the decoding parameters derived for a model family.
type GenerationDefaults struct {
	Temperature     float32 `json:"temperature"`
	TopK            int32   `json:"top_k"`
	TopP            float32 `json:"top_p"`
	MaxOutputTokens int32   `json:"max_output_tokens"`
}

// StatusResponse mirrors the gateway's readiness surface.
type StatusResponse struct {
	Ready   bool   `json:"ready"`
	Loading bool   `json:"loading"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}
