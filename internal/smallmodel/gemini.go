package smallmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiProvider calls Google's Gemini API via the official SDK.
type geminiProvider struct {
	apiKey     string
	model      string
	workingCtx int
}

func newGeminiProvider(apiKey, model string, workingCtx int) *geminiProvider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &geminiProvider{apiKey: apiKey, model: model, workingCtx: workingCtx}
}

func (p *geminiProvider) id() string               { return "gemini" }
func (p *geminiProvider) workingContextChars() int { return p.workingCtx }

// available: a cloud provider with a key requirement — key presence is
// the whole check, per spec.
func (p *geminiProvider) available(ctx context.Context) bool {
	return p.apiKey != ""
}

func (p *geminiProvider) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(callCtx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", Usage{}, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	if maxTokens > 0 {
		model.MaxOutputTokens = int32ptr(int32(maxTokens))
	}

	resp, err := model.GenerateContent(callCtx, genai.Text(user))
	if err != nil {
		return "", Usage{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Usage{}, nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, usage, nil
}

func int32ptr(v int32) *int32 { return &v }
