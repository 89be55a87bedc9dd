// Package router implements the Tiered Router: five escalating strategies
// for resolving a user input, from a free instant answer up to a
// small-model classification call, so most requests never reach a large
// model at all.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvidlabs/corvid/internal/capabilities"
	"github.com/corvidlabs/corvid/internal/classifier"
	"github.com/corvidlabs/corvid/internal/manifest"
	"github.com/corvidlabs/corvid/internal/shell"
	"github.com/corvidlabs/corvid/internal/smallmodel"
)

// Kind identifies which RouteResult variant was produced.
type Kind int

const (
	KindInstant Kind = iota
	KindBashShortcut
	KindCached
	KindClassified
)

func (k Kind) String() string {
	switch k {
	case KindInstant:
		return "instant"
	case KindBashShortcut:
		return "bash_shortcut"
	case KindCached:
		return "cached"
	case KindClassified:
		return "classified"
	default:
		return "unknown"
	}
}

// Result is the router's RouteResult sum type: Instant/BashShortcut carry
// just enough to resolve early; Cached/Classified carry an analysis
// record for the agent selector.
type Result struct {
	Kind Kind

	Answer  string // Instant
	Command string // BashShortcut

	Tools      []string // Cached, Classified
	Skills     []string
	AgentType  string
	PromptTier string
	Confidence float64
}

// IsEarlyExit is true for Instant and BashShortcut: the request is fully
// resolved without an agent invocation.
func (r Result) IsEarlyExit() bool {
	return r.Kind == KindInstant || r.Kind == KindBashShortcut
}

// Resolve runs a BashShortcut result's command, returning trimmed stdout.
// On a non-zero exit with non-empty stderr, the returned text is prefixed
// to surface the failure instead of returning a Go error — only a
// genuine inability to run the shell at all is a Go error.
func (r Result) Resolve(ctx context.Context) (string, error) {
	if r.Kind != KindBashShortcut {
		return "", fmt.Errorf("router: Resolve called on a %s result", r.Kind)
	}
	res, err := shell.Run(ctx, r.Command, shell.Options{})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 && strings.TrimSpace(res.Stderr) != "" {
		return "error: " + strings.TrimSpace(res.Stderr), nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// safeDefaultConfidence is Tier 3b's fallback confidence when the model's
// JSON classification response can't be parsed.
const safeDefaultConfidence = 0.3

const nativeClassifierThreshold = 0.35

// Router ties the manifest, native classifier, small-model resolver, and
// capability registry into the five-tier escalation.
type Router struct {
	manifest *manifest.Store
	resolver *smallmodel.Resolver
	registry *capabilities.Registry
}

// New returns a Router bound to the given manifest store, small-model
// resolver, and capability registry. resolver may be nil if no small
// model is configured — Tier 3b is then skipped.
func New(m *manifest.Store, resolver *smallmodel.Resolver, reg *capabilities.Registry) *Router {
	return &Router{manifest: m, resolver: resolver, registry: reg}
}

// Route never returns an error: it always produces a Result, falling back
// tier by tier until one matches, and finally to a safe default.
func (r *Router) Route(ctx context.Context, input string) Result {
	doc := r.manifest.Document()

	if answer, ok := matchInstant(input, doc); ok {
		return Result{Kind: KindInstant, Answer: answer}
	}

	if command, ok := matchBashShortcut(input, doc); ok {
		return Result{Kind: KindBashShortcut, Command: command}
	}

	if cat, confidence, ok := categoryMatch(input, doc.Categories); ok {
		return r.finalize(KindCached, cat, confidence)
	}

	if cat, confidence, ok := r.nativeClassify(input, doc.Categories); ok {
		return r.finalize(KindClassified, cat, confidence)
	}

	if r.resolver != nil {
		if result, ok := r.modelClassify(ctx, input, doc.Categories); ok {
			return result
		}
	}

	return safeDefault()
}

func (r *Router) nativeClassify(input string, categories []manifest.Category) (manifest.Category, float64, bool) {
	if len(categories) == 0 {
		return manifest.Category{}, 0, false
	}

	classifierCats := make([]classifier.Category, len(categories))
	byID := make(map[string]manifest.Category, len(categories))
	for i, c := range categories {
		classifierCats[i] = classifier.Category{ID: c.ID, Patterns: c.Patterns}
		byID[c.ID] = c
	}

	result := classifier.Classify(input, classifierCats, nativeClassifierThreshold)
	if !result.Matched {
		return manifest.Category{}, 0, false
	}
	return byID[result.CategoryID], result.Confidence, true
}

// modelPrompt is the JSON request sent to the small model for Tier 3b.
type modelPrompt struct {
	Input      string              `json:"input"`
	Categories []modelPromptEntry  `json:"categories"`
}

type modelPromptEntry struct {
	ID       string   `json:"id"`
	Patterns []string `json:"patterns"`
}

type modelClassification struct {
	CategoryID string   `json:"category_id"`
	Tools      []string `json:"tools"`
	AgentType  string   `json:"agent_type"`
	PromptTier string   `json:"prompt_tier"`
}

func (r *Router) modelClassify(ctx context.Context, input string, categories []manifest.Category) (Result, bool) {
	prompt := modelPrompt{Input: input}
	for _, c := range categories {
		patterns := c.Patterns
		if len(patterns) > 3 {
			patterns = patterns[:3]
		}
		prompt.Categories = append(prompt.Categories, modelPromptEntry{ID: c.ID, Patterns: patterns})
	}

	raw, err := json.Marshal(prompt)
	if err != nil {
		return Result{}, false
	}

	raw2, err := r.resolver.ClassifyWithFallback(ctx, string(raw), 500)
	if err != nil {
		return Result{}, false
	}

	var classification modelClassification
	if err := json.Unmarshal([]byte(extractJSONObject(raw2)), &classification); err != nil {
		return safeDefault(), true
	}
	if classification.CategoryID == "" {
		return safeDefault(), true
	}

	return Result{
		Kind:       KindClassified,
		Tools:      ensureCoreTools(classification.Tools),
		AgentType:  firstNonEmpty(classification.AgentType, "react"),
		PromptTier: firstNonEmpty(classification.PromptTier, "standard"),
		Confidence: safeDefaultConfidence,
	}, true
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// finalize converts a matched category into a Cached/Classified Result,
// resolving matching skills from the capability registry and ensuring the
// tool list carries the shell and capability-lookup tools.
func (r *Router) finalize(kind Kind, cat manifest.Category, confidence float64) Result {
	skills := append([]string{}, cat.Skills...)
	if r.registry != nil {
		skills = append(skills, resolveSkills(r.registry, cat)...)
	}

	return Result{
		Kind:       kind,
		Tools:      ensureCoreTools(cat.Tools),
		Skills:     dedupe(skills),
		AgentType:  cat.AgentType,
		PromptTier: cat.PromptTier,
		Confidence: confidence,
	}
}

// skillResolutionThreshold is the minimum keyword-overlap count for the
// router to union a registry skill with a category's declared skills.
const skillResolutionThreshold = 1

func resolveSkills(reg *capabilities.Registry, cat manifest.Category) []string {
	catTerms := wordSet(strings.ToLower(cat.ID + " " + strings.Join(cat.Patterns, " ")))

	var matched []string
	for name, desc := range reg.SkillDescriptions() {
		terms := wordSet(strings.ToLower(name + " " + desc))
		overlap := 0
		for t := range terms {
			if catTerms[t] {
				overlap++
			}
		}
		if overlap >= skillResolutionThreshold {
			matched = append(matched, name)
		}
	}
	return matched
}

func ensureCoreTools(tools []string) []string {
	has := func(name string) bool {
		for _, t := range tools {
			if t == name {
				return true
			}
		}
		return false
	}
	out := tools
	if !has(capabilities.ShellToolName) {
		out = append([]string{capabilities.ShellToolName}, out...)
	}
	if !has(capabilities.CapabilityLookupToolName) {
		out = append(out, capabilities.CapabilityLookupToolName)
	}
	return out
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// safeDefault is the Tier 3b parse-failure fallback: shell + capability
// lookup, react, standard, confidence 0.3.
func safeDefault() Result {
	return Result{
		Kind:       KindClassified,
		Tools:      []string{capabilities.ShellToolName, capabilities.CapabilityLookupToolName},
		AgentType:  "react",
		PromptTier: "standard",
		Confidence: safeDefaultConfidence,
	}
}
