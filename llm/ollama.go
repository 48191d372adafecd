package llm

import "context"

// ollamaProvider implements Provider for Ollama. Ollama exposes an
// OpenAI-compatible chat endpoint alongside its native API.
type ollamaProvider struct {
	base openAICompatClient
}

// NewOllama creates a provider for Ollama.
func NewOllama(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &ollamaProvider{base: newOpenAICompatClient(cfg)}
}

func (p *ollamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}
