package summarizer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corvidlabs/corvid/internal/shell"
)

// shellSummary is the structured shape a shell result is rendered to:
// command/exit_code/working_directory/stderr/success are kept verbatim,
// only stdout goes through the generic summarizer.
type shellSummary struct {
	Command          string `json:"command"`
	ExitCode         int    `json:"exit_code"`
	WorkingDirectory string `json:"working_directory,omitempty"`
	Stderr           string `json:"stderr,omitempty"`
	Success          bool   `json:"success"`
	Stdout           string `json:"stdout"`
}

// SummarizeShellResult renders a shell.Result into the structured JSON form
// tool results re-enter a model context as, summarizing only stdout and
// only when the command succeeded — a failing command's output is always
// passed through verbatim so error detail isn't lost to compression.
func SummarizeShellResult(ctx context.Context, caller ModelCaller, command, cwd string, res shell.Result) (string, int) {
	failed := res.ExitCode != 0 || res.TimedOut

	stdout := res.Stdout
	bytesSaved := 0
	if !failed {
		summarized, saved := Summarize(ctx, caller, Input{
			ToolName: "shell",
			Content:  res.Stdout,
			IsError:  false,
			Context:  fmt.Sprintf("shell command: %s", command),
		})
		stdout = summarized
		bytesSaved = saved
	}

	out := shellSummary{
		Command:          command,
		ExitCode:         res.ExitCode,
		WorkingDirectory: cwd,
		Stderr:           res.Stderr,
		Success:          !failed,
		Stdout:           stdout,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return res.Stdout, 0
	}
	return string(data), bytesSaved
}
