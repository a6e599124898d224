package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/nulzo/gemini-bridge/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testClient(t *testing.T, id catalog.ID, be backend) *Client {
	t.Helper()
	entry, err := catalog.Resolve(id)
	require.NoError(t, err)
	return newClient(entry, Config{}, be)
}

func TestNew_EmptyAPIKey(t *testing.T) {
	c, err := New(context.Background(), Config{Model: catalog.Flash20})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, c)
}

func TestDeriveGeneration_ExhaustiveOverCatalog(t *testing.T) {
	expected := map[catalog.ID]GenerationConfig{
		catalog.Standard:    {Temperature: 0.9, TopK: 1, TopP: 0.95, MaxOutputTokens: 2048},
		catalog.Vision:      {Temperature: 0.9, TopK: 1, TopP: 0.95, MaxOutputTokens: 2048},
		catalog.Fast15:      {Temperature: 0.9, TopK: 1, TopP: 0.95, MaxOutputTokens: 8192},
		catalog.Flash20:     {Temperature: 0.4, TopK: 1, TopP: 0.95, MaxOutputTokens: 8192},
		catalog.Flash20Lite: {Temperature: 0.4, TopK: 1, TopP: 0.95, MaxOutputTokens: 8192},
		catalog.Pro20:       {Temperature: 0.4, TopK: 1, TopP: 0.95, MaxOutputTokens: 8192},
	}

	for id, want := range expected {
		entry, err := catalog.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, want, DeriveGeneration(entry.Family), "derived config for %s", id)
	}
}

func TestNewClient_PrebuildsVendorConfig(t *testing.T) {
	c := testClient(t, catalog.Flash20, &mockBackend{})

	require.NotNil(t, c.genCfg.Temperature)
	assert.InDelta(t, 0.4, float64(*c.genCfg.Temperature), 1e-6)
	assert.Equal(t, int32(8192), c.genCfg.MaxOutputTokens)
	assert.Len(t, c.genCfg.SafetySettings, 4)

	for _, s := range c.genCfg.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdBlockMediumAndAbove, s.Threshold)
	}
}

func TestNewClient_GenerationOverride(t *testing.T) {
	entry, err := catalog.Resolve(catalog.Flash20)
	require.NoError(t, err)

	override := GenerationConfig{Temperature: 1.2, TopK: 40, TopP: 0.8, MaxOutputTokens: 512}
	c := newClient(entry, Config{Generation: &override}, &mockBackend{})

	assert.Equal(t, override, c.Generation())
	assert.Equal(t, int32(512), c.genCfg.MaxOutputTokens)
}

func TestModelIntrospection(t *testing.T) {
	c := testClient(t, catalog.Flash20, &mockBackend{})
	assert.Equal(t, "gemini-2.0-flash", c.ModelName())
	assert.True(t, c.UsesLatestFamily())

	c = testClient(t, catalog.Standard, &mockBackend{})
	assert.Equal(t, "gemini-pro", c.ModelName())
	assert.False(t, c.UsesLatestFamily())
}

func TestGenerate(t *testing.T) {
	var gotModel string
	be := &mockBackend{
		generateFunc: func(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			require.Len(t, contents, 1)
			resp := textResponse("The answer is 42.", genai.FinishReasonStop)
			resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     7,
				CandidatesTokenCount: 6,
				TotalTokenCount:      13,
			}
			return resp, nil
		},
	}

	c := testClient(t, catalog.Flash20, be)
	result, err := c.Generate(context.Background(), "What is the answer?")
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", gotModel)
	assert.Equal(t, "The answer is 42.", result.Text)
	assert.Equal(t, string(genai.FinishReasonStop), result.FinishReason)
	assert.Equal(t, 13, result.TotalTokens)
}

func TestGenerate_VendorError(t *testing.T) {
	be := &mockBackend{
		generateFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	c := testClient(t, catalog.Flash20, be)
	result, err := c.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_EmptyResponse(t *testing.T) {
	be := &mockBackend{
		generateFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}

	c := testClient(t, catalog.Flash20, be)
	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateStream_ChunksInOrder(t *testing.T) {
	be := &mockBackend{
		streamFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return frames([]string{"A", "B", "C"}, nil)
		},
	}

	c := testClient(t, catalog.Flash20, be)

	var chunks []string
	err := c.GenerateStream(context.Background(), "spell abc", func(text string) {
		chunks = append(chunks, text)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, chunks)
}

func TestGenerateStream_FailureAfterFirstChunk(t *testing.T) {
	be := &mockBackend{
		streamFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return frames([]string{"A"}, errors.New("connection reset"))
		},
	}

	c := testClient(t, catalog.Flash20, be)

	var chunks []string
	err := c.GenerateStream(context.Background(), "spell abc", func(text string) {
		chunks = append(chunks, text)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, []string{"A"}, chunks)
}

func TestGenerateStream_CancelMidStream(t *testing.T) {
	be := &mockBackend{
		streamFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return func(yield func(*genai.GenerateContentResponse, error) bool) {
				if !yield(textResponse("A", ""), nil) {
					return
				}
				// The vendor stream surfaces the cancellation as its
				// next frame once the request context dies.
				<-ctx.Done()
				yield(nil, ctx.Err())
			}
		},
	}

	c := testClient(t, catalog.Flash20, be)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var chunks []string
	err := c.GenerateStream(ctx, "spell abc", func(text string) {
		chunks = append(chunks, text)
		cancel()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"A"}, chunks)
}

func TestGenerateStream_NoChunks(t *testing.T) {
	c := testClient(t, catalog.Flash20, &mockBackend{})

	calls := 0
	err := c.GenerateStream(context.Background(), "hi", func(string) { calls++ })

	require.NoError(t, err)
	assert.Zero(t, calls)
}
