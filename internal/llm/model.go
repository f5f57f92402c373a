package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/models"
)

// Model wraps a langchaingo LLM for chat completion.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates a completion model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Generate answers a single prompt with no prior context.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// Complete answers the latest turn of a transcript, passing the full
// role-tagged history to the model.
func (m *Model) Complete(ctx context.Context, transcript []models.ChatMessage) (string, error) {
	content, err := TranscriptContent(transcript)
	if err != nil {
		return "", err
	}

	response, err := m.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Model returns the completion model name.
func (m *Model) Model() string {
	return m.modelName
}

// TranscriptContent maps a transcript onto langchaingo message contents.
// Unknown roles are rejected rather than guessed at.
func TranscriptContent(transcript []models.ChatMessage) ([]llms.MessageContent, error) {
	content := make([]llms.MessageContent, 0, len(transcript))
	for i, msg := range transcript {
		var role llms.ChatMessageType
		switch msg.Role {
		case models.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case models.RoleUser:
			role = llms.ChatMessageTypeHuman
		case models.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("transcript message %d: unknown role %q", i, msg.Role)
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	return content, nil
}
