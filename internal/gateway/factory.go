package gateway

import (
	"context"

	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/nulzo/gemini-bridge/internal/config"
	"github.com/nulzo/gemini-bridge/internal/gemini"
	"go.uber.org/zap"
)

// GeminiFactory builds the production Factory from service configuration.
// The credential and endpoint are fixed here; only the model identifier is
// left to the first caller.
func GeminiFactory(cfg config.GeminiConfig, logger *zap.Logger) Factory {
	return func(ctx context.Context, model catalog.ID) (Generator, error) {
		return gemini.New(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			Model:          model,
			BaseURL:        cfg.BaseURL,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         logger,
		})
	}
}
