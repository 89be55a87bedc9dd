package smallmodel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// cooldownState tracks a provider's failure history for exponential
// backoff, mirroring the teacher's modelCooldownState/MarkFailed bookkeeping.
type cooldownState struct {
	failureCount  int
	cooldownUntil time.Time
}

// Resolver picks a Provider once, caches the pick, and reprobes in
// priority order whenever the active provider fails or is asked to retry.
type Resolver struct {
	override  string // "auto" or an explicit provider ID
	providers []*Provider

	mu        sync.Mutex
	resolved  *Provider
	cooldowns map[string]*cooldownState
}

// NewResolver builds a resolver over providers in strict priority order
// (on-device, mlx, ollama, lmstudio, groq, gemini, anthropic). override
// pins a specific provider ID; "auto" or "" probes in priority order.
func NewResolver(override string, providers []*Provider) *Resolver {
	if override == "" {
		override = "auto"
	}
	return &Resolver{
		override:  override,
		providers: providers,
		cooldowns: make(map[string]*cooldownState),
	}
}

// Resolve returns the cached provider pick, probing availability in
// priority order on first use (or after the previous pick failed).
func (r *Resolver) Resolve(ctx context.Context) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil && !r.inCooldown(r.resolved.ID()) {
		return r.resolved, nil
	}

	if r.override != "auto" {
		for _, p := range r.providers {
			if p.ID() == r.override {
				r.resolved = p
				return p, nil
			}
		}
		return nil, fmt.Errorf("smallmodel: override provider %q not configured", r.override)
	}

	for _, p := range r.providers {
		if r.inCooldown(p.ID()) {
			continue
		}
		if p.IsAvailable(ctx) {
			r.resolved = p
			return p, nil
		}
	}
	return nil, fmt.Errorf("smallmodel: no provider available")
}

// MarkFailed records a failure for providerID with exponential backoff:
// 5s, 10s, 20s, 40s... capped at 1 hour, identical formula to the
// teacher's ModelSelector.MarkFailed. The next Resolve call skips it
// until the cooldown expires.
func (r *Resolver) MarkFailed(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.cooldowns[providerID]
	if state == nil {
		state = &cooldownState{}
		r.cooldowns[providerID] = state
	}
	state.failureCount++

	backoffSeconds := 5 << (state.failureCount - 1)
	if backoffSeconds > 3600 {
		backoffSeconds = 3600
	}
	state.cooldownUntil = time.Now().Add(time.Duration(backoffSeconds) * time.Second)

	if r.resolved != nil && r.resolved.ID() == providerID {
		r.resolved = nil
	}
}

// ClearFailed resets every cooldown and the cached pick, forcing a full
// reprobe on the next Resolve call.
func (r *Resolver) ClearFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns = make(map[string]*cooldownState)
	r.resolved = nil
}

func (r *Resolver) inCooldown(providerID string) bool {
	state := r.cooldowns[providerID]
	if state == nil {
		return false
	}
	return time.Now().Before(state.cooldownUntil)
}

// CallWithFallback resolves a provider and calls it, marking the provider
// failed and reprobing on each error, for at most one more attempt than
// there are providers, before giving up.
func (r *Resolver) CallWithFallback(ctx context.Context, prompt string, maxTokens int, purpose Purpose, instructions string) (string, error) {
	for attempt := 0; attempt < len(r.providers)+1; attempt++ {
		p, err := r.Resolve(ctx)
		if err != nil {
			return "", err
		}
		text, err := p.Call(ctx, prompt, maxTokens, purpose, instructions)
		if err == nil {
			return text, nil
		}
		r.MarkFailed(p.ID())
	}
	return "", fmt.Errorf("smallmodel: exhausted all providers")
}

// ClassifyWithFallback is CallWithFallback's counterpart for the
// classify operation, retrying the next provider in priority order on
// failure.
func (r *Resolver) ClassifyWithFallback(ctx context.Context, jsonPrompt string, maxTokens int) (string, error) {
	for attempt := 0; attempt < len(r.providers)+1; attempt++ {
		p, err := r.Resolve(ctx)
		if err != nil {
			return "", err
		}
		text, err := p.Classify(ctx, jsonPrompt, maxTokens)
		if err == nil {
			return text, nil
		}
		r.MarkFailed(p.ID())
	}
	return "", fmt.Errorf("smallmodel: exhausted all providers")
}

// SummarizeWithFallback is CallWithFallback's counterpart for the
// summarize operation.
func (r *Resolver) SummarizeWithFallback(ctx context.Context, content, context string, maxTokens int) (string, error) {
	for attempt := 0; attempt < len(r.providers)+1; attempt++ {
		p, err := r.Resolve(ctx)
		if err != nil {
			return "", err
		}
		text, err := p.Summarize(ctx, content, context, maxTokens)
		if err == nil {
			return text, nil
		}
		r.MarkFailed(p.ID())
	}
	return "", fmt.Errorf("smallmodel: exhausted all providers")
}
