package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvidlabs/corvid/internal/capabilities"
)

// ModelCaller is the narrow small-model dependency generate() needs.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// defaultBashCommands and defaultInstantAnswers seed a freshly generated
// manifest; generate() always applies these regardless of what the model
// returns for categories.
var defaultInstantAnswers = map[string]string{
	"what time is it":      "time",
	"what is the time":     "time",
	"what day is it":       "date",
	"what is today's date": "date",
	"hi|hello|hey":         "greeting",
	"what can you do":      "capabilities",
}

var defaultBashCommands = map[string]string{
	"what is my ip":   "curl -s ifconfig.me",
	"current directory": "pwd",
	"disk space":      "df -h",
}

type generatedCategory struct {
	ID         string   `json:"id"`
	Patterns   []string `json:"patterns"`
	Tools      []string `json:"tools"`
	Skills     []string `json:"skills"`
	AgentType  string   `json:"agent_type"`
	PromptTier string   `json:"prompt_tier"`
}

// Generate invokes model with a structured prompt describing every known
// tool and skill, expecting 10-20 categories back as JSON. On any failure
// to reach the model or parse its response, it falls back to the bundled
// default category set. instant_answers and bash_commands are always
// populated from the fixed default table regardless of model success.
func (s *Store) Generate(ctx context.Context, model ModelCaller, reg *capabilities.Registry) error {
	categories, err := s.generateCategories(ctx, model, reg)
	if err != nil {
		if fallbackErr := s.LoadBundledFallback(); fallbackErr != nil {
			return fmt.Errorf("generate failed (%v) and bundled fallback failed: %w", err, fallbackErr)
		}
	}

	s.mu.Lock()
	if err == nil {
		s.doc.Categories = categories
	}
	for k, v := range defaultInstantAnswers {
		s.doc.InstantAnswers[k] = v
	}
	for k, v := range defaultBashCommands {
		s.doc.BashCommands[k] = v
	}
	err = s.save()
	s.mu.Unlock()
	return err
}

func (s *Store) generateCategories(ctx context.Context, model ModelCaller, reg *capabilities.Registry) ([]Category, error) {
	if model == nil {
		return nil, fmt.Errorf("no model available")
	}

	var sb strings.Builder
	sb.WriteString("Tools:\n")
	for name, desc := range reg.ToolDescriptions() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}
	sb.WriteString("\nSkills:\n")
	for name, desc := range reg.SkillDescriptions() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}

	system := fmt.Sprintf(
		"Group the tools and skills below into 10-20 routing categories. "+
			"Each category needs: id, patterns (lowercase intent phrases), tools "+
			"(must include %q first and %q last), skills, agent_type "+
			"(react|plan-execute|reflection), prompt_tier (minimal|standard|full). "+
			"Respond with a JSON array only, no prose.",
		capabilities.ShellToolName, capabilities.CapabilityLookupToolName)

	raw, err := model.Call(ctx, system, sb.String(), 2000)
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	var generated []generatedCategory
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &generated); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("model returned zero categories")
	}

	out := make([]Category, len(generated))
	for i, g := range generated {
		out[i] = Category{
			ID:         g.ID,
			Patterns:   g.Patterns,
			Tools:      ensureCoreTools(g.Tools),
			Skills:     g.Skills,
			AgentType:  g.AgentType,
			PromptTier: g.PromptTier,
		}
	}
	return out, nil
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
	if !has(capabilities.ShellToolName) {
		tools = append([]string{capabilities.ShellToolName}, tools...)
	}
	if !has(capabilities.CapabilityLookupToolName) {
		tools = append(tools, capabilities.CapabilityLookupToolName)
	}
	return tools
}

// extractJSONArray trims any leading/trailing prose the model adds around
// a JSON array, taking the substring from the first '[' to the last ']'.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
