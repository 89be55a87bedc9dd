package smallmodel

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
)

// ollamaProvider talks to a local Ollama server using the official SDK's
// wire types, mirroring the teacher's OllamaProvider but collapsed to a
// single non-streaming round trip.
type ollamaProvider struct {
	baseURL    string
	model      string
	client     *ollamaapi.Client
	workingCtx int
}

func newOllamaProvider(baseURL, model string, workingCtx int) *ollamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen3:4b"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	return &ollamaProvider{
		baseURL:    baseURL,
		model:      model,
		client:     ollamaapi.NewClient(parsed, &http.Client{Timeout: 2 * time.Minute}),
		workingCtx: workingCtx,
	}
}

func (p *ollamaProvider) id() string                 { return "ollama" }
func (p *ollamaProvider) workingContextChars() int   { return p.workingCtx }

func (p *ollamaProvider) available(ctx context.Context) bool {
	return probeHTTP(ctx, p.baseURL+"/api/tags")
}

func (p *ollamaProvider) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	messages := make([]ollamaapi.Message, 0, 2)
	if system != "" {
		messages = append(messages, ollamaapi.Message{Role: "system", Content: system})
	}
	messages = append(messages, ollamaapi.Message{Role: "user", Content: user})

	stream := false
	req := &ollamaapi.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
	}
	if maxTokens > 0 {
		req.Options = map[string]any{"num_predict": maxTokens}
	}

	var sb strings.Builder
	var usage Usage
	err := p.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			usage.InputTokens = resp.PromptEvalCount
			usage.OutputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return "", Usage{}, err
	}
	return sb.String(), usage, nil
}
