// Package gateway owns the single shared Gemini client used by the HTTP
// surface. The client is constructed lazily on the first operation and kept
// for the life of the Service; requests naming a different model after that
// keep the first binding. Construct a fresh Service to rebind.
package gateway

import (
	"context"
	"sync"

	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/nulzo/gemini-bridge/internal/gemini"
	"go.uber.org/zap"
)

// Generator is the slice of the gemini client the gateway delegates to.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*gemini.Result, error)
	GenerateStream(ctx context.Context, prompt string, onChunk func(text string)) error
	StartChat(ctx context.Context, history []gemini.Turn) (gemini.Chat, error)
	ModelName() string
	UsesLatestFamily() bool
}

// Factory constructs the generator bound on first use.
type Factory func(ctx context.Context, model catalog.ID) (Generator, error)

// Status is a point-in-time snapshot of the gateway's observable state.
type Status struct {
	Ready   bool
	Loading bool
	Model   string
	Err     string
}

// Service serializes access to the shared generator and tracks the
// readiness/loading/error surface clients poll.
type Service struct {
	logger  *zap.Logger
	factory Factory

	mu       sync.Mutex
	gen      Generator
	bound    catalog.ID
	inflight int
	lastErr  error
}

func New(logger *zap.Logger, factory Factory) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:  logger,
		factory: factory,
	}
}

// Generate runs a one-shot generation through the shared client.
func (s *Service) Generate(ctx context.Context, model catalog.ID, prompt string) (*gemini.Result, error) {
	gen, err := s.acquire(ctx, model)
	if err != nil {
		return nil, err
	}

	s.beginOp()
	defer s.endOp()

	result, err := gen.Generate(ctx, prompt)
	s.record(err)
	return result, err
}

// GenerateStream runs a streamed generation through the shared client.
func (s *Service) GenerateStream(ctx context.Context, model catalog.ID, prompt string, onChunk func(text string)) error {
	gen, err := s.acquire(ctx, model)
	if err != nil {
		return err
	}

	s.beginOp()
	defer s.endOp()

	err = gen.GenerateStream(ctx, prompt, onChunk)
	s.record(err)
	return err
}

// StartChat creates a chat session on the shared client. The session is the
// caller's to hold; the gateway does not track it.
func (s *Service) StartChat(ctx context.Context, model catalog.ID, history []gemini.Turn) (gemini.Chat, error) {
	gen, err := s.acquire(ctx, model)
	if err != nil {
		return nil, err
	}

	chat, err := gen.StartChat(ctx, history)
	s.record(err)
	return chat, err
}

// Status reports the current readiness surface.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Ready:   s.gen != nil,
		Loading: s.inflight > 0,
	}
	if s.gen != nil {
		st.Model = s.gen.ModelName()
	}
	if s.lastErr != nil {
		st.Err = s.lastErr.Error()
	}
	return st
}

// acquire returns the shared generator, constructing it on first use. Once
// bound, a different model identifier is ignored; callers get the original
// binding back.
func (s *Service) acquire(ctx context.Context, model catalog.ID) (Generator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != nil {
		if model != "" && model != s.bound {
			s.logger.Warn("gateway already bound, ignoring requested model",
				zap.String("bound", string(s.bound)),
				zap.String("requested", string(model)),
			)
		}
		return s.gen, nil
	}

	if model == "" {
		model = catalog.Default
	}

	gen, err := s.factory(ctx, model)
	if err != nil {
		s.lastErr = err
		return nil, err
	}

	s.gen = gen
	s.bound = model
	s.lastErr = nil
	s.logger.Info("gateway bound",
		zap.String("model", string(model)),
		zap.String("vendor_name", gen.ModelName()),
		zap.Bool("latest_family", gen.UsesLatestFamily()),
	)
	return gen, nil
}

func (s *Service) beginOp() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Service) endOp() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// record keeps the last operation error for the status surface; a successful
// operation clears it.
func (s *Service) record(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
