package smallmodel

import (
	"context"
	"fmt"
)

// Adapter bridges a Resolver to the narrow Call(ctx, systemPrompt,
// userPrompt string, maxTokens int) (string, error) shape that
// internal/simpleagent, internal/manifest, internal/summarizer, and
// internal/compactor each declare as their own ModelCaller interface.
// Those packages deliberately don't import smallmodel directly — this
// is the one type that fits a concrete Resolver to all four.
type Adapter struct {
	resolver *Resolver
	purpose  Purpose
}

// NewAdapter returns an Adapter that tags every call with purpose for
// ledger accounting. Construct one per call site (e.g. PurposeTask for
// simpleagent, PurposeSummarization for summarizer) so ledger entries
// stay attributable to the subsystem that spent the tokens.
func NewAdapter(resolver *Resolver, purpose Purpose) *Adapter {
	return &Adapter{resolver: resolver, purpose: purpose}
}

// Call resolves a provider through the fallback chain and invokes it.
func (a *Adapter) Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	for attempt := 0; attempt < len(a.resolver.providers)+1; attempt++ {
		p, err := a.resolver.Resolve(ctx)
		if err != nil {
			return "", err
		}
		text, err := p.Call(ctx, userPrompt, maxTokens, a.purpose, systemPrompt)
		if err == nil {
			return text, nil
		}
		a.resolver.MarkFailed(p.ID())
	}
	return "", fmt.Errorf("smallmodel: exhausted all providers")
}
