// Package gemini wraps google.golang.org/genai for text generation and embeddings.
package gemini

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultEmbedModel = "gemini-embedding-001"
)

// Client generates text and embeddings.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateRequest is a single-turn generation request.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32
	MaxTokens   int32
	// JSON requests an application/json response MIME type.
	JSON bool
}

// GenerateResponse is the text of the first candidate plus usage.
type GenerateResponse struct {
	Text         string
	InputTokens  int32
	OutputTokens int32
}

// models is the subset of *genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the generation model.
func WithModel(m string) Option {
	return func(c *sdkClient) {
		if m != "" {
			c.model = m
		}
	}
}

// WithEmbedModel overrides the embedding model.
func WithEmbedModel(m string) Option {
	return func(c *sdkClient) {
		if m != "" {
			c.embedModel = m
		}
	}
}

// WithDimensions truncates embeddings to n values.
func WithDimensions(n int) Option {
	return func(c *sdkClient) { c.dims = int32(n) }
}

type sdkClient struct {
	models     models
	model      string
	embedModel string
	dims       int32
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return newClient(gc.Models, opts...), nil
}

func newClient(m models, opts ...Option) *sdkClient {
	c := &sdkClient{models: m, model: defaultModel, embedModel: defaultEmbedModel}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	out := &GenerateResponse{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = resp.UsageMetadata.PromptTokenCount
		out.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}

func (c *sdkClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if c.dims > 0 {
		cfg.OutputDimensionality = &c.dims
	}

	resp, err := c.models.EmbedContent(ctx, c.embedModel, contents, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: embed content")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, eris.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// StatusCode extracts the HTTP status of a Gemini API error, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
