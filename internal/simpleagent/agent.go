// Package simpleagent implements the on-device execute-and-format path used
// when a request's tool set is shell-only (or shell plus capability lookup)
// and its complexity is simple or trivial: plan a couple of bash commands
// with the small model, run them, and format the result — never invoking
// the full agent loop.
package simpleagent

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/corvidlabs/corvid/internal/shell"
)

// ModelCaller is the narrow small-model dependency this package needs: one
// text-in, text-out call. internal/smallmodel's Adapter implements it.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

const (
	maxCommands          = 2
	defaultMaxOutputChars = 4000
	skillMaxOutputChars   = 20000
)

// Result is the agent's final user-facing answer, or a bail-out signal
// telling the caller to fall through to the full agent.
type Result struct {
	Answer    string
	BailOut   bool
	BailWhy   string
	Commands  []string
	Executed  []shell.Result
}

// Agent runs the Plan -> Execute -> Format protocol.
type Agent struct {
	Model ModelCaller
}

// New constructs an Agent bound to a model caller.
func New(model ModelCaller) *Agent {
	return &Agent{Model: model}
}

// Run executes the plain (non-skill) variant: plan up to two bash commands
// for input, run them, and format the combined output.
func (a *Agent) Run(ctx context.Context, input string) (Result, error) {
	commands, err := a.plan(ctx, input, "")
	if err != nil {
		return Result{}, err
	}
	if len(commands) == 0 {
		return Result{BailOut: true, BailWhy: "no commands planned"}, nil
	}

	return a.executeAndFormat(ctx, input, commands, defaultMaxOutputChars, false)
}

// RunSkill substitutes the skill's {{NAME}}/${NAME}/{NAME} placeholders from
// input, then asks the model to output the already-filled-in procedure
// verbatim. Raises the output budget to 20,000 chars with an intermediate
// summarization step for any oversized individual stdout.
func (a *Agent) RunSkill(ctx context.Context, input, procedure string) (Result, error) {
	substituted, err := a.substitutePlaceholders(ctx, input, procedure)
	if err != nil {
		return Result{}, err
	}

	commands, err := a.plan(ctx, input, substituted)
	if err != nil {
		return Result{}, err
	}
	if len(commands) == 0 {
		return Result{BailOut: true, BailWhy: "no commands planned"}, nil
	}
	for _, c := range commands {
		if containsPlaceholder(c) {
			return Result{BailOut: true, BailWhy: "unsubstituted placeholder in planned command"}, nil
		}
	}

	return a.executeAndFormat(ctx, input, commands, skillMaxOutputChars, true)
}

// plan asks the model for up to two bash commands. If procedure is
// non-empty, the model is told the commands are already filled in and
// should be emitted verbatim (the skill-parameterized variant).
func (a *Agent) plan(ctx context.Context, input, procedure string) ([]string, error) {
	var system, user string
	if procedure != "" {
		system = "The commands are already filled in. Output them verbatim, one per line, max 2 commands. No numbering, no bullets, no backticks, no explanation."
		user = procedure
	} else {
		system = "Output only bash commands, one per line, max 2 commands, that answer the request. No numbering, no bullets, no backticks, no explanation."
		user = input
	}

	raw, err := a.Model.Call(ctx, system, user, 200)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	return parseCommands(raw), nil
}

// executeAndFormat runs the planned commands and formats the result, or
// signals a bail-out per the spec's bail conditions.
func (a *Agent) executeAndFormat(ctx context.Context, input string, commands []string, maxOutputChars int, skillVariant bool) (Result, error) {
	results := make([]shell.Result, 0, len(commands))
	var combined strings.Builder

	for _, cmd := range commands {
		res, err := shell.Run(ctx, cmd, shell.Options{})
		if err != nil {
			return Result{BailOut: true, BailWhy: fmt.Sprintf("shell failed to start: %v", err), Commands: commands, Executed: results}, nil
		}
		results = append(results, res)

		if res.ExitCode != 0 && strings.TrimSpace(res.Stderr) != "" {
			return Result{BailOut: true, BailWhy: "command exited non-zero with stderr", Commands: commands, Executed: results}, nil
		}

		if skillVariant && len(res.Stdout) > defaultMaxOutputChars {
			summarized, err := a.Model.Call(ctx, "Summarize this command output, preserving numbers and key data, under 1000 characters.", res.Stdout, 400)
			if err == nil {
				res.Stdout = summarized
			}
		}

		combined.WriteString(cmd)
		combined.WriteString("\n")
		combined.WriteString(res.Stdout)
		if res.Stderr != "" {
			combined.WriteString("\nSTDERR:\n")
			combined.WriteString(res.Stderr)
		}
		combined.WriteString("\n")
	}

	if combined.Len() > maxOutputChars {
		return Result{BailOut: true, BailWhy: "combined output exceeds budget", Commands: commands, Executed: results}, nil
	}

	formatted, err := a.Model.Call(ctx,
		"Format these command results as the final user-facing answer in markdown. Preserve numbers and key data exactly.",
		fmt.Sprintf("Request: %s\n\nResults:\n%s", input, combined.String()),
		600)
	if err != nil {
		return Result{}, fmt.Errorf("format: %w", err)
	}

	return Result{Answer: strings.TrimSpace(formatted), Commands: commands, Executed: results}, nil
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// parseCommands strips numbering/bullets/backticks, drops comment lines,
// rejects danger-listed commands, and caps the result at maxCommands.
func parseCommands(raw string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.Trim(line, "`")
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if isDangerous(line) {
			continue
		}
		out = append(out, line)
		if len(out) >= maxCommands {
			break
		}
	}
	return out
}

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z_][A-Z0-9_]*)\}\}|\$\{([A-Z_][A-Z0-9_]*)\}|\{([A-Z_][A-Z0-9_]*)\}`)

var urlContextPattern = regexp.MustCompile(`https?://`)

// substitutePlaceholders finds every distinct {{NAME}}/${NAME}/{NAME}
// identifier in procedure, asks the model to extract its value from input,
// and substitutes everywhere — URL-encoding spaces when the placeholder
// sits inside a URL.
func (a *Agent) substitutePlaceholders(ctx context.Context, input, procedure string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(procedure, -1)
	seen := map[string]bool{}
	var names []string
	for _, m := range matches {
		name := firstNonEmpty(m[1], m[2], m[3])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	result := procedure
	for _, name := range names {
		value, err := a.Model.Call(ctx,
			fmt.Sprintf("Extract the value of %s from the user input. Output the value only, no quotes, no explanation.", name),
			input, 50)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		value = strings.TrimSpace(value)
		result = substituteName(result, name, value)
	}
	return result, nil
}

func substituteName(procedure, name, value string) string {
	urlEncoded := strings.ReplaceAll(value, " ", "%20")
	forms := []string{"{{" + name + "}}", "${" + name + "}", "{" + name + "}"}
	for _, form := range forms {
		idx := 0
		for {
			pos := strings.Index(procedure[idx:], form)
			if pos < 0 {
				break
			}
			abs := idx + pos
			replacement := value
			if inURLContext(procedure, abs) {
				replacement = urlEncoded
			}
			procedure = procedure[:abs] + replacement + procedure[abs+len(form):]
			idx = abs + len(replacement)
		}
	}
	return procedure
}

func inURLContext(s string, pos int) bool {
	start := pos - 40
	if start < 0 {
		start = 0
	}
	return urlContextPattern.MatchString(s[start:pos])
}

func containsPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
