package gemini

import (
	"time"

	"github.com/nulzo/gemini-bridge/internal/catalog"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultRequestTimeout bounds every vendor round trip, including full
// consumption of a stream. Zero in Config disables the bound.
const DefaultRequestTimeout = 60 * time.Second

// GenerationConfig holds the decoding parameters sent with every request.
// Immutable once the client is constructed.
type GenerationConfig struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// DeriveGeneration returns the per-family defaults. The base values apply to
// the original model family; newer families run cooler and with a larger
// output budget. Exactly one override rule applies.
func DeriveGeneration(family catalog.Family) GenerationConfig {
	g := GenerationConfig{
		Temperature:     0.9,
		TopK:            1,
		TopP:            0.95,
		MaxOutputTokens: 2048,
	}

	switch family {
	case catalog.Family20:
		g.Temperature = 0.4
		g.MaxOutputTokens = 8192
	case catalog.Family15:
		g.MaxOutputTokens = 8192
	}

	return g
}

// SafetySetting pairs a harm category with its blocking threshold.
type SafetySetting struct {
	Category  string
	Threshold string
}

// DefaultSafetySettings blocks the four standard harm categories at medium
// and above. Caller-overridable at construction only.
func DefaultSafetySettings() []SafetySetting {
	return []SafetySetting{
		{Category: string(genai.HarmCategoryHarassment), Threshold: string(genai.HarmBlockThresholdBlockMediumAndAbove)},
		{Category: string(genai.HarmCategoryHateSpeech), Threshold: string(genai.HarmBlockThresholdBlockMediumAndAbove)},
		{Category: string(genai.HarmCategorySexuallyExplicit), Threshold: string(genai.HarmBlockThresholdBlockMediumAndAbove)},
		{Category: string(genai.HarmCategoryDangerousContent), Threshold: string(genai.HarmBlockThresholdBlockMediumAndAbove)},
	}
}

func convertSafetySettings(settings []SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// Config configures a Client. APIKey is the only required field.
type Config struct {
	// APIKey authenticates against the Gemini API. Empty is a configuration
	// error; the client refuses to construct.
	APIKey string

	// Model selects the catalog entry to bind. Empty selects catalog.Default.
	Model catalog.ID

	// Generation overrides the family-derived decoding parameters.
	Generation *GenerationConfig

	// Safety overrides DefaultSafetySettings.
	Safety []SafetySetting

	// BaseURL points the vendor SDK at a non-production endpoint. Used by the
	// benchmark harness; empty means the real API.
	BaseURL string

	// RequestTimeout bounds each vendor call. Defaults to
	// DefaultRequestTimeout; negative disables the bound.
	RequestTimeout time.Duration

	Logger *zap.Logger
}
