// Package compactor implements the Context Compactor: between agent
// iterations, once the estimated token count of the conversation crosses
// a configured fraction of the context ceiling, it compacts the middle of
// the transcript in place while leaving the opening and the most recent
// turns untouched.
package compactor

import (
	"context"
	"fmt"

	"github.com/corvidlabs/corvid/internal/ledger"
)

// ModelCaller is the narrow small-model dependency this package needs.
// internal/smallmodel's Adapter implements it.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Role identifies a message's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolResultBlock is a tool result embedded in a user-role turn.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
	Compacted bool // already summarized by a prior compaction pass
}

// Message is the compactor's own minimal conversation-turn shape: just
// enough structure to find and replace oversized blocks.
type Message struct {
	Role        Role
	Text        string // assistant reasoning / user input
	ToolResults []ToolResultBlock
}

const (
	// DefaultMaxContextTokens is the context ceiling the compactor targets.
	DefaultMaxContextTokens = 80000
	// DefaultCompactThreshold is the fraction of the ceiling that triggers
	// a compaction pass.
	DefaultCompactThreshold = 0.50

	keepFirst = 2
	keepLast  = 4

	toolResultCompactFloor = 200
	assistantTextCompactFloor = 300

	elisionHead = 150
	elisionTail = 100

	compactMaxTokens = 300
)

// Config holds the compactor's tunables.
type Config struct {
	MaxContextTokens int
	CompactThreshold float64
}

// DefaultConfig returns the spec's default ceiling and threshold.
func DefaultConfig() Config {
	return Config{MaxContextTokens: DefaultMaxContextTokens, CompactThreshold: DefaultCompactThreshold}
}

// EstimateTokens estimates a message slice's token count the same way the
// rest of the core does: chars/4.
func EstimateTokens(messages []Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Text)
		for _, tr := range m.ToolResults {
			chars += len(tr.Content)
		}
	}
	return ledger.EstimateTokens(chars)
}

// Compact returns messages unchanged if under threshold, otherwise a new
// slice with the middle's oversized blocks summarized (or, if caller is
// nil, head/tail truncated) and the number of tokens saved.
func Compact(ctx context.Context, caller ModelCaller, messages []Message, cfg Config) ([]Message, int) {
	if len(messages) <= keepFirst+keepLast {
		return messages, 0
	}

	before := EstimateTokens(messages)
	trigger := int(float64(cfg.MaxContextTokens) * cfg.CompactThreshold)
	if before <= trigger {
		return messages, 0
	}

	out := make([]Message, len(messages))
	copy(out, messages)

	middleStart := keepFirst
	middleEnd := len(out) - keepLast

	for i := middleStart; i < middleEnd; i++ {
		switch out[i].Role {
		case RoleUser:
			out[i].ToolResults = compactToolResults(ctx, caller, out[i].ToolResults)
		case RoleAssistant:
			out[i].Text = compactAssistantText(ctx, caller, out[i].Text)
		}
	}

	after := EstimateTokens(out)
	saved := before - after
	if saved < 0 {
		saved = 0
	}
	return out, saved
}

func compactToolResults(ctx context.Context, caller ModelCaller, blocks []ToolResultBlock) []ToolResultBlock {
	out := make([]ToolResultBlock, len(blocks))
	copy(out, blocks)

	for i := range out {
		if out[i].Compacted || out[i].IsError {
			continue
		}
		if len(out[i].Content) <= toolResultCompactFloor {
			continue
		}
		out[i].Content = summarizeOrElide(ctx, caller, out[i].Content,
			"Summarize this tool result for reuse in an automated assistant's context. Be concise, preserve concrete facts.")
		out[i].Compacted = true
	}
	return out
}

func compactAssistantText(ctx context.Context, caller ModelCaller, text string) string {
	if len(text) <= assistantTextCompactFloor {
		return text
	}
	summary := summarizeOrElide(ctx, caller, text,
		"Summarize this prior assistant reasoning in one or two sentences, preserving any decisions or conclusions reached.")
	return "[reasoning from a prior iteration] " + summary
}

func summarizeOrElide(ctx context.Context, caller ModelCaller, content, instructions string) string {
	if caller != nil {
		if summary, err := caller.Call(ctx, instructions, content, compactMaxTokens); err == nil && summary != "" && len(summary) < len(content) {
			return summary
		}
	}
	return elide(content)
}

// elide is the fallback when the small model is unavailable: head + tail
// with an elision notice, used verbatim by both tool-result and
// assistant-text compaction when no model call succeeds.
func elide(content string) string {
	if len(content) <= elisionHead+elisionTail {
		return content
	}
	head := content[:elisionHead]
	tail := content[len(content)-elisionTail:]
	return fmt.Sprintf("%s\n...[%d chars elided]...\n%s", head, len(content)-elisionHead-elisionTail, tail)
}
