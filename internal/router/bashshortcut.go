package router

import (
	"regexp"
	"strings"
	"sync"

	"github.com/corvidlabs/corvid/internal/manifest"
)

// wordBoundaryCache memoizes the compiled word-boundary regex per
// single-word alternative, since bash_commands patterns rarely change
// within a process lifetime.
var wordBoundaryCache sync.Map

func wordBoundaryRegex(word string) *regexp.Regexp {
	if v, ok := wordBoundaryCache.Load(word); ok {
		return v.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	wordBoundaryCache.Store(word, re)
	return re
}

// matchBashShortcut returns the shell command and true if input matches any
// bash_commands pattern. Multi-word alternatives match by substring
// containment; single-word alternatives match by word boundary, so "ls"
// doesn't fire inside "als".
func matchBashShortcut(input string, doc manifest.Document) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))

	for pattern, command := range doc.BashCommands {
		for _, alt := range strings.Split(pattern, "|") {
			alt = strings.TrimSpace(strings.ToLower(alt))
			if alt == "" {
				continue
			}
			if strings.Contains(alt, " ") {
				if strings.Contains(lower, alt) {
					return command, true
				}
				continue
			}
			if wordBoundaryRegex(alt).MatchString(lower) {
				return command, true
			}
		}
	}
	return "", false
}
