// Package summarizer implements the Result Summarizer: it runs on every
// tool result before it re-enters a model context, compressing oversized
// output so a single noisy tool call doesn't blow the working context.
//
// Three tiers, gated purely on content length (errors and known-compact
// tools always pass through untouched):
//   - below skipThreshold: untouched
//   - between skip and summarizeThreshold: light compression, no model call
//   - above summarizeThreshold: tool-specific small-model summarization
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvidlabs/corvid/internal/capabilities"
)

// ModelCaller is the narrow small-model dependency this package needs.
// internal/smallmodel's Adapter implements it.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

const (
	// DefaultSkipThreshold is the content length below which a result is
	// left untouched.
	DefaultSkipThreshold = 500
	// DefaultSummarizeThreshold is the content length above which a result
	// is sent to the small model instead of just light-compressed.
	DefaultSummarizeThreshold = 800

	maxLineChars        = 500
	truncatedLineChars  = 497
	summarizeMaxTokens  = 400
)

// passthroughTools never get summarized or compressed: they already
// produce compact, structured output.
var passthroughTools = map[string]bool{
	capabilities.CapabilityLookupToolName: true,
	"write_confirmation":                  true,
	"credentials.store":                   true,
	"credentials.retrieve":                true,
}

// Input describes a single tool result awaiting summarization.
type Input struct {
	ToolName string
	Content  string
	IsError  bool

	// Context is a short human-readable hint handed to the small model —
	// e.g. "file read: notes.txt (142 lines)" or "tool: web.fetch, input: ...".
	Context string
}

// Summarize applies the three-tier strategy to a single result, returning
// the (possibly unchanged) content and the number of bytes saved (0 if
// nothing was compressed). caller may be nil — summarization above the
// threshold then falls back to light compression only.
func Summarize(ctx context.Context, caller ModelCaller, in Input) (string, int) {
	if in.IsError || passthroughTools[in.ToolName] {
		return in.Content, 0
	}

	n := len(in.Content)
	if n <= DefaultSkipThreshold {
		return in.Content, 0
	}

	if n < DefaultSummarizeThreshold {
		compressed := lightCompress(in.Content)
		return compressed, n - len(compressed)
	}

	if caller == nil {
		compressed := lightCompress(in.Content)
		return compressed, n - len(compressed)
	}

	summary, err := modelSummarize(ctx, caller, in)
	if err != nil || len(summary) >= n {
		return in.Content, 0
	}

	tagged := fmt.Sprintf("[Summarized: %d → %d chars]\n%s", n, len(summary), summary)
	if len(tagged) >= n {
		return in.Content, 0
	}
	return tagged, n - len(tagged)
}

func modelSummarize(ctx context.Context, caller ModelCaller, in Input) (string, error) {
	system := "Summarize the following tool output for reuse in an automated assistant's context. " +
		"Be concise. Preserve concrete facts, numbers, names, and error messages. No preamble."
	user := in.Content
	if in.Context != "" {
		user = in.Context + "\n\n" + in.Content
	}
	return caller.Call(ctx, system, user, summarizeMaxTokens)
}

// lightCompress is the no-model-call compression tier: collapse runs of
// blank lines, collapse internal runs of spaces, trim trailing whitespace
// per line, and hard-truncate any single line over maxLineChars.
func lightCompress(s string) string {
	lines := strings.Split(s, "\n")

	out := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		line = strings.TrimRight(collapseSpaces(line), " \t")
		if strings.TrimSpace(line) == "" {
			blankRun++
			if blankRun <= 2 {
				out = append(out, "")
			}
			continue
		}
		blankRun = 0
		if len(line) > maxLineChars {
			line = line[:truncatedLineChars] + "..."
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// collapseSpaces collapses runs of 2+ spaces into a single space, leaving
// leading indentation alone isn't required by the spec so this applies
// uniformly across the line.
func collapseSpaces(s string) string {
	var sb strings.Builder
	spaceRun := 0
	for _, r := range s {
		if r == ' ' {
			spaceRun++
			if spaceRun <= 1 {
				sb.WriteRune(r)
			}
			continue
		}
		spaceRun = 0
		sb.WriteRune(r)
	}
	return sb.String()
}
