// Package smallmodel is the uniform client over seven small/local/cheap
// model providers: on-device, mlx, ollama, lmstudio, groq, gemini, and
// anthropic. Callers never talk to a concrete provider — they go through
// a Resolver, which probes providers in priority order, caches the pick,
// and funnels every call through the Token Ledger.
package smallmodel

import (
	"context"
	"strings"

	"github.com/corvidlabs/corvid/internal/ledger"
)

// Purpose labels a call for ledger accounting.
type Purpose string

const (
	PurposeClassification Purpose = "classification"
	PurposeSummarization  Purpose = "summarization"
	PurposeCompaction     Purpose = "context-compaction"
	PurposeTask           Purpose = "task"
)

// Usage reports provider-side token accounting when the provider's wire
// response includes it. Zero values mean "not reported" — the caller
// falls back to ledger.EstimateTokens.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// defaultWorkingContextChars is the prompt truncation floor applied when a
// provider doesn't declare its own (matches the spec's on-device default).
const defaultWorkingContextChars = 12800

const elisionMarker = "\n...[truncated]"

// rawCaller is the minimal surface a concrete provider implements. The
// Provider wrapper in this file adds truncation, ledger accounting, and
// the call/summarize/classify/isAvailable surface every caller sees.
type rawCaller interface {
	id() string
	available(ctx context.Context) bool
	rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error)
	workingContextChars() int
}

// Provider is the polymorphic small-model capability: call, summarize,
// classify, isAvailable, identical across all seven backends.
type Provider struct {
	raw    rawCaller
	ledger *ledger.Ledger
}

func newProvider(raw rawCaller, l *ledger.Ledger) *Provider {
	return &Provider{raw: raw, ledger: l}
}

// ID returns the provider identifier (e.g. "ollama", "anthropic").
func (p *Provider) ID() string { return p.raw.id() }

// IsAvailable reports whether this provider can currently serve a call.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.raw.available(ctx) }

// Call sends prompt with optional system instructions and records a
// LedgerEntry for purpose on success.
func (p *Provider) Call(ctx context.Context, prompt string, maxTokens int, purpose Purpose, instructions string) (string, error) {
	prompt = truncate(prompt, p.raw.workingContextChars())
	text, usage, err := p.raw.rawCall(ctx, instructions, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	p.record(purpose, prompt, text, usage)
	return text, nil
}

// Summarize asks the provider to summarize content given surrounding
// context, recording a LedgerEntry for the summarization purpose.
func (p *Provider) Summarize(ctx context.Context, content, context string, maxTokens int) (string, error) {
	system := "Summarize the following content concisely, preserving anything a reader would need to act on it."
	if context != "" {
		system += " Context: " + context
	}
	user := truncate(content, p.raw.workingContextChars())
	text, usage, err := p.raw.rawCall(ctx, system, user, maxTokens)
	if err != nil {
		return "", err
	}
	p.record(PurposeSummarization, user, text, usage)
	return text, nil
}

// Classify sends jsonPrompt (a classification task described as JSON) and
// returns the raw JSON text response, recording a LedgerEntry for the
// classification purpose.
func (p *Provider) Classify(ctx context.Context, jsonPrompt string, maxTokens int) (string, error) {
	system := "Respond with JSON only, no prose, no markdown fences."
	user := truncate(jsonPrompt, p.raw.workingContextChars())
	text, usage, err := p.raw.rawCall(ctx, system, user, maxTokens)
	if err != nil {
		return "", err
	}
	p.record(PurposeClassification, user, text, usage)
	return text, nil
}

func (p *Provider) record(purpose Purpose, input, output string, usage Usage) {
	if p.ledger == nil {
		return
	}
	inTok, outTok := usage.InputTokens, usage.OutputTokens
	if inTok == 0 {
		inTok = ledger.EstimateTokens(len(input))
	}
	if outTok == 0 {
		outTok = ledger.EstimateTokens(len(output))
	}
	p.ledger.Record(ledger.Entry{
		Provider:     p.raw.id(),
		Purpose:      string(purpose),
		InputTokens:  inTok,
		OutputTokens: outTok,
	})
}

// truncate trims s from the tail to limit characters, appending an
// explicit elision marker when it does.
func truncate(s string, limit int) string {
	if limit <= 0 {
		limit = defaultWorkingContextChars
	}
	if len(s) <= limit {
		return s
	}
	cut := limit - len(elisionMarker)
	if cut < 0 {
		cut = limit
	}
	return strings.TrimSpace(s[:cut]) + elisionMarker
}
