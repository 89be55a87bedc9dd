package smallmodel

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openaiCompatProvider is shared by mlx, lmstudio, and groq: all three
// speak the OpenAI chat-completions wire format, differing only in base
// URL, API key requirement, and model name — grounded on the teacher's
// OpenAIProvider, which already supports a baseURL override for exactly
// this case.
type openaiCompatProvider struct {
	providerID string
	baseURL    string
	model      string
	client     openai.Client
	requiresKey bool
	apiKey      string
	workingCtx  int
}

func newOpenAICompatProvider(providerID, baseURL, apiKey, model string, requiresKey bool, workingCtx int) *openaiCompatProvider {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		opts = append(opts, option.WithAPIKey("not-needed"))
	}
	return &openaiCompatProvider{
		providerID:  providerID,
		baseURL:     baseURL,
		model:       model,
		client:      openai.NewClient(opts...),
		requiresKey: requiresKey,
		apiKey:      apiKey,
		workingCtx:  workingCtx,
	}
}

func (p *openaiCompatProvider) id() string               { return p.providerID }
func (p *openaiCompatProvider) workingContextChars() int { return p.workingCtx }

// available: cloud providers that require a key report available based on
// key presence alone; local HTTP servers (mlx, lmstudio) probe the base
// URL with a short timeout.
func (p *openaiCompatProvider) available(ctx context.Context) bool {
	if p.requiresKey {
		return p.apiKey != ""
	}
	return probeHTTP(ctx, p.baseURL)
}

func (p *openaiCompatProvider) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return "", Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, nil
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}
