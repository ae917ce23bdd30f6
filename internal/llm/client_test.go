package llm

import (
	"testing"

	"github.com/emirozbir/clinic-insights/internal/config"
)

func TestNewClientProviders(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{name: "anthropic", provider: "anthropic", apiKey: "key"},
		{name: "openai", provider: "openai", apiKey: "key"},
		{name: "anthropic without key", provider: "anthropic", wantErr: true},
		{name: "openai without key", provider: "openai", wantErr: true},
		{name: "unknown provider", provider: "mystery", apiKey: "key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LLM: config.LLMConfig{Provider: tt.provider, APIKey: tt.apiKey, Model: "m", MaxTokens: 256}}
			client, err := NewClient(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got client %T", client)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Fatalf("expected client")
			}
		})
	}
}
