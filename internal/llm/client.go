package llm

import (
	"context"
	"fmt"

	"github.com/emirozbir/clinic-insights/internal/config"
)

const systemPrompt = "You analyze operational telemetry for a multi-tenant clinic management platform. " +
	"Answer with a single JSON object that follows the requested structure exactly. Do not add commentary."

// Client is the text generation service used by the insight assembler.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewClient returns the client for cfg.LLM.Provider.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.LLM)
	case "openai":
		return NewOpenAIClient(cfg.LLM)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}
