package engine

import (
	"log/slog"

	"github.com/novacarriers/claimdesk/internal/config"
)

// NewModelClient returns the client for cfg.LLMProvider, or the stub when
// the provider has no API key configured.
func NewModelClient(cfg config.Config) ModelClient {
	if cfg.UseStubs() {
		slog.Warn("no API key for LLM provider, using stub model client", "provider", cfg.LLMProvider)
		return &StubModelClient{}
	}
	switch cfg.LLMProvider {
	case "claude":
		slog.Info("using Claude model client", "model", cfg.AnthropicModel)
		return NewClaudeClient(cfg.AnthropicKey, WithClaudeModel(cfg.AnthropicModel), WithClaudeTimeout(cfg.HTTPTimeout))
	case "gemini":
		slog.Info("using Gemini model client", "model", cfg.GeminiModel)
		return NewGeminiClient(cfg.GeminiKey, WithGeminiModel(cfg.GeminiModel), WithGeminiTimeout(cfg.HTTPTimeout))
	case "ollama":
		slog.Info("using Ollama model client", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return NewOllamaClient(cfg.OllamaURL, WithOllamaModel(cfg.OllamaModel), WithOllamaTimeout(2*cfg.HTTPTimeout))
	default:
		slog.Info("using OpenAI model client", "base_url", cfg.OpenAIBaseURL, "model", cfg.OpenAIModel)
		return NewOpenAIClient(cfg.OpenAIKey,
			WithBaseURL(cfg.OpenAIBaseURL),
			WithModel(cfg.OpenAIModel),
			WithTimeout(cfg.HTTPTimeout),
		)
	}
}

// NewExtractor returns the URL extractor, or the stub alongside a stub model.
func NewExtractor(cfg config.Config) ContentExtractor {
	if cfg.UseStubs() {
		return &StubExtractor{}
	}
	return NewURLExtractor(cfg.HTTPTimeout, cfg.MaxTextLength)
}
