package compactor

import (
	"context"
	"strings"
	"testing"
)

type fakeCaller struct {
	response string
	err      error
	calls    int
}

func (f *fakeCaller) Call(ctx context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func bigMessages(n int, toolResultChars, textChars int) []Message {
	messages := make([]Message, 0, n)
	messages = append(messages, Message{Role: RoleSystem, Text: "system prompt"})
	messages = append(messages, Message{Role: RoleUser, Text: "initial request"})
	for i := 0; i < n-keepFirst-keepLast; i++ {
		if i%2 == 0 {
			messages = append(messages, Message{
				Role: RoleUser,
				ToolResults: []ToolResultBlock{
					{ToolUseID: "t1", Content: strings.Repeat("x", toolResultChars)},
				},
			})
		} else {
			messages = append(messages, Message{Role: RoleAssistant, Text: strings.Repeat("y", textChars)})
		}
	}
	for i := 0; i < keepLast; i++ {
		messages = append(messages, Message{Role: RoleAssistant, Text: "recent turn"})
	}
	return messages
}

func TestCompactUnderThresholdNoop(t *testing.T) {
	messages := bigMessages(10, 100, 100)
	out, saved := Compact(context.Background(), nil, messages, DefaultConfig())
	if saved != 0 {
		t.Fatalf("expected no savings under threshold, got %d", saved)
	}
	if len(out) != len(messages) {
		t.Fatalf("expected message count unchanged")
	}
}

func TestCompactOverThresholdElidesWithoutModel(t *testing.T) {
	cfg := Config{MaxContextTokens: 1000, CompactThreshold: 0.5}
	messages := bigMessages(20, 2000, 2000)

	out, saved := Compact(context.Background(), nil, messages, cfg)
	if saved <= 0 {
		t.Fatalf("expected positive savings, got %d", saved)
	}

	for i := keepFirst; i < len(out)-keepLast; i++ {
		if out[i].Role == RoleUser && len(out[i].ToolResults) > 0 {
			if !out[i].ToolResults[0].Compacted {
				t.Fatalf("expected middle tool result to be marked compacted")
			}
			if len(out[i].ToolResults[0].Content) >= 2000 {
				t.Fatalf("expected tool result content to shrink")
			}
		}
	}
}

func TestCompactPreservesFirstTwoAndLastFour(t *testing.T) {
	cfg := Config{MaxContextTokens: 1000, CompactThreshold: 0.5}
	messages := bigMessages(20, 2000, 2000)
	out, _ := Compact(context.Background(), nil, messages, cfg)

	if out[0].Text != messages[0].Text || out[1].Text != messages[1].Text {
		t.Fatalf("expected first two messages preserved verbatim")
	}
	for i := 1; i <= keepLast; i++ {
		if out[len(out)-i].Text != messages[len(messages)-i].Text {
			t.Fatalf("expected last %d messages preserved verbatim", keepLast)
		}
	}
}

func TestCompactUsesModelWhenAvailable(t *testing.T) {
	cfg := Config{MaxContextTokens: 1000, CompactThreshold: 0.5}
	messages := bigMessages(20, 2000, 2000)
	caller := &fakeCaller{response: "concise summary"}

	out, saved := Compact(context.Background(), caller, messages, cfg)
	if caller.calls == 0 {
		t.Fatalf("expected model to be called for oversized blocks")
	}
	if saved <= 0 {
		t.Fatalf("expected positive savings")
	}

	foundSummary := false
	for i := keepFirst; i < len(out)-keepLast; i++ {
		if out[i].Role == RoleUser && len(out[i].ToolResults) > 0 && out[i].ToolResults[0].Content == "concise summary" {
			foundSummary = true
		}
	}
	if !foundSummary {
		t.Fatalf("expected at least one tool result replaced with the model summary")
	}
}

func TestCompactSkipsAlreadyCompactedAndErrorBlocks(t *testing.T) {
	cfg := Config{MaxContextTokens: 1, CompactThreshold: 0.5}
	messages := []Message{
		{Role: RoleSystem, Text: "sys"},
		{Role: RoleUser, Text: "initial"},
		{Role: RoleUser, ToolResults: []ToolResultBlock{
			{ToolUseID: "a", Content: strings.Repeat("z", 1000), Compacted: true},
			{ToolUseID: "b", Content: strings.Repeat("z", 1000), IsError: true},
		}},
		{Role: RoleAssistant, Text: "r1"},
		{Role: RoleAssistant, Text: "r2"},
		{Role: RoleAssistant, Text: "r3"},
		{Role: RoleAssistant, Text: "r4"},
	}

	out, _ := Compact(context.Background(), nil, messages, cfg)
	mid := out[2]
	if len(mid.ToolResults[0].Content) != 1000 {
		t.Fatalf("expected already-compacted block to be left alone")
	}
	if len(mid.ToolResults[1].Content) != 1000 {
		t.Fatalf("expected error block to be left alone")
	}
}

func TestElideShortensLongContent(t *testing.T) {
	content := strings.Repeat("a", 10000)
	out := elide(content)
	if len(out) >= len(content) {
		t.Fatalf("expected elide to shorten content")
	}
	if !strings.Contains(out, "elided") {
		t.Fatalf("expected elision notice")
	}
}

func TestElideNoopUnderCombinedHeadTail(t *testing.T) {
	content := strings.Repeat("a", 50)
	if elide(content) != content {
		t.Fatalf("expected short content to be returned unchanged")
	}
}
