package smallmodel

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// anthropicProvider calls the Anthropic Messages API via the official
// SDK. It is always last in priority order — a cloud fallback of last
// resort once every local and cheaper-cloud option has failed to probe.
type anthropicProvider struct {
	client     anthropic.Client
	apiKey     string
	model      string
	workingCtx int
}

func newAnthropicProvider(apiKey, model string, workingCtx int) *anthropicProvider {
	if model == "" {
		model = "claude-haiku-4-5"
	}
	return &anthropicProvider{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey:     apiKey,
		model:      model,
		workingCtx: workingCtx,
	}
}

func (p *anthropicProvider) id() string               { return "anthropic" }
func (p *anthropicProvider) workingContextChars() int { return p.workingCtx }

func (p *anthropicProvider) available(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *anthropicProvider) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicDefaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if maxTokens > 0 {
		params.MaxTokens = int64(maxTokens)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(callCtx, params)
	if err != nil {
		return "", Usage{}, err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	return text, usage, nil
}
