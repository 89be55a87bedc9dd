package smallmodel

import (
	"github.com/corvidlabs/corvid/internal/config"
	"github.com/corvidlabs/corvid/internal/ledger"
)

// priorityOrder is the strict auto-detection probe order: on-device,
// MLX, Ollama, LM Studio, Groq, Gemini, Anthropic (always last).
var priorityOrder = []string{"ondevice", "mlx", "ollama", "lmstudio", "groq", "gemini", "anthropic"}

// BuildResolver constructs every configured provider in priority order
// and wraps them in a Resolver honoring cfg.Classifier.ProviderOverride.
func BuildResolver(cfg config.Config, l *ledger.Ledger) *Resolver {
	providers := make([]*Provider, 0, len(priorityOrder))
	for _, id := range priorityOrder {
		pc, configured := cfg.Providers[id]
		if configured && pc.Enabled != "" && !pc.IsEnabled() {
			continue
		}
		if raw := buildRawCaller(id, pc); raw != nil {
			providers = append(providers, newProvider(raw, l))
		}
	}
	return NewResolver(cfg.Classifier.ProviderOverride, providers)
}

func buildRawCaller(id string, pc config.ProviderConfig) rawCaller {
	workingCtx := defaultWorkingContextChars

	switch id {
	case "ondevice":
		return newOndeviceProvider(pc.BinaryPath, workingCtx)
	case "mlx":
		endpoint := pc.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:8080/v1"
		}
		return newOpenAICompatProvider("mlx", endpoint, pc.APIKey, firstNonEmpty(pc.Model, "mlx-community/model"), false, workingCtx)
	case "ollama":
		return newOllamaProvider(pc.Endpoint, pc.Model, workingCtx)
	case "lmstudio":
		endpoint := pc.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:1234/v1"
		}
		return newOpenAICompatProvider("lmstudio", endpoint, pc.APIKey, firstNonEmpty(pc.Model, "local-model"), false, workingCtx)
	case "groq":
		endpoint := pc.Endpoint
		if endpoint == "" {
			endpoint = "https://api.groq.com/openai/v1"
		}
		return newOpenAICompatProvider("groq", endpoint, pc.APIKey, firstNonEmpty(pc.Model, "llama-3.1-8b-instant"), true, workingCtx)
	case "gemini":
		return newGeminiProvider(pc.APIKey, pc.Model, workingCtx)
	case "anthropic":
		return newAnthropicProvider(pc.APIKey, pc.Model, workingCtx)
	default:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
