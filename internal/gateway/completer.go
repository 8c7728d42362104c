package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/gemini"
	"github.com/sells-group/outreach-cli/pkg/openai"
)

// Stage labels a prompt for logging and cost attribution.
type Stage string

const (
	StageResearch Stage = "research"
	StageScore    Stage = "score"
	StageOutreach Stage = "outreach"
)

// Prompt is one single-turn completion request.
type Prompt struct {
	Stage       Stage
	Subject     string // company name, used by the offline stub
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer turns a prompt into raw reply text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// classify marks retryable HTTP failures so the retry loop picks them up.
func classify(err error, status int) error {
	if resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	return err
}

// AnthropicCompleter sends prompts to the Messages API with a cached system block.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompleter wraps an anthropic.Client.
func NewAnthropicCompleter(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model}
}

// Name implements Completer.
func (c *AnthropicCompleter) Name() string { return "anthropic" }

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temp := p.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   int64(p.MaxTokens),
		System:      anthropic.BuildCachedSystemBlocks(p.System),
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: &temp,
	})
	if err != nil {
		return "", classify(eris.Wrapf(err, "gateway: anthropic %s", p.Stage), anthropic.StatusCode(err))
	}
	resp.Usage.LogCost(c.model, string(p.Stage))
	return resp.Text(), nil
}

// OpenAICompleter sends prompts to an OpenAI-compatible chat completions API
// in JSON object mode.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter wraps an openai.Client.
func NewOpenAICompleter(client openai.Client, model string) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model}
}

// Name implements Completer.
func (c *OpenAICompleter) Name() string { return "openai" }

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temp := p.Temperature
	maxTokens := p.MaxTokens
	resp, err := c.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:    &temp,
		MaxTokens:      &maxTokens,
		ResponseFormat: openai.JSONObject,
	})
	if err != nil {
		var status int
		var se *openai.StatusError
		if eris.As(err, &se) {
			status = se.StatusCode
		}
		return "", classify(eris.Wrapf(err, "gateway: openai %s", p.Stage), status)
	}
	return resp.Text(), nil
}

// GeminiCompleter sends prompts to Gemini with a JSON response MIME type.
type GeminiCompleter struct {
	client gemini.Client
	model  string
}

// NewGeminiCompleter wraps a gemini.Client.
func NewGeminiCompleter(client gemini.Client, model string) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model}
}

// Name implements Completer.
func (c *GeminiCompleter) Name() string { return "gemini" }

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	temp := float32(p.Temperature)
	resp, err := c.client.Generate(ctx, gemini.GenerateRequest{
		Model:       c.model,
		System:      p.System,
		Prompt:      p.User,
		Temperature: &temp,
		MaxTokens:   int32(p.MaxTokens),
		JSON:        true,
	})
	if err != nil {
		return "", classify(eris.Wrapf(err, "gateway: gemini %s", p.Stage), gemini.StatusCode(err))
	}
	return resp.Text, nil
}
