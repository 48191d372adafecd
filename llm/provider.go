package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for LLM interactions. The engine holds exactly
// one Provider and never branches on which backend is behind it.
type Provider interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a single-message conversation with the given content.
func UserMessage(content string) []Message {
	return []Message{{Role: "user", Content: content}}
}

// ChatResponse is the response from a chat completion.
type ChatResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	FinishReason     string `json:"finish_reason"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// Config configures an LLM provider.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // openrouter, ollama, lmstudio, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// NewProvider creates an LLM provider from configuration. The backend is
// selected once at process start; everything downstream sees only Provider.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "openrouter":
		return NewOpenRouter(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	case "lmstudio":
		return NewLMStudio(cfg), nil
	case "custom":
		return NewOpenAICompat(cfg), nil
	case "":
		return nil, fmt.Errorf("llm provider not specified")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
