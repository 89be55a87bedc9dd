package summarizer

import (
	"context"
	"fmt"
)

// SummarizeFileRead summarizes the file contents, handing the model a
// context line that names the file, its line count, and the truncation
// flag. Only the (possibly summarized) contents are returned: the
// filename, line count, and truncation flag are not part of the result.
func SummarizeFileRead(ctx context.Context, caller ModelCaller, filename string, lineCount int, truncated bool, content string) (string, int) {
	summarized, saved := Summarize(ctx, caller, Input{
		ToolName: "file_read",
		Content:  content,
		IsError:  false,
		Context:  fmt.Sprintf("file read: %s (%d lines, truncated=%v)", filename, lineCount, truncated),
	})
	return summarized, saved
}
