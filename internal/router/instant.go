package router

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/corvidlabs/corvid/internal/manifest"
)

// instantPattern pairs a strict, word-boundary regex with the generator it
// triggers. Patterns are intentionally narrow — "time" must not fire for
// "uptime".
type instantPattern struct {
	re        *regexp.Regexp
	generate  func(input string, doc manifest.Document) string
}

var instantPatterns = []instantPattern{
	{
		re:       regexp.MustCompile(`(?i)^\s*(what(?:'s| is)?\s+(?:the\s+)?time\b.*|what time is it\b.*)$`),
		generate: generateTime,
	},
	{
		re:       regexp.MustCompile(`(?i)^\s*what(?:'s| is)?\s+(?:today'?s\s+)?date\b.*$|^\s*what day is it\b.*$`),
		generate: generateDate,
	},
	{
		re:       regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good morning|good evening|good afternoon)[\s!.,]*$`),
		generate: generateGreeting,
	},
	{
		re:       regexp.MustCompile(`(?i)^\s*what can you do\b.*$|^\s*what are your capabilities\b.*$`),
		generate: generateCapabilities,
	},
}

// cityTimezones maps a small fixed set of city names to IANA timezones for
// "what time is it in <city>" queries. Falls back to the system zone when
// no trailing city is recognized.
var cityTimezones = map[string]string{
	"london":        "Europe/London",
	"paris":         "Europe/Paris",
	"berlin":        "Europe/Berlin",
	"tokyo":         "Asia/Tokyo",
	"new york":      "America/New_York",
	"los angeles":   "America/Los_Angeles",
	"san francisco": "America/Los_Angeles",
	"chicago":       "America/Chicago",
	"sydney":        "Australia/Sydney",
	"singapore":     "Asia/Singapore",
	"dubai":         "Asia/Dubai",
	"mumbai":        "Asia/Kolkata",
	"beijing":       "Asia/Shanghai",
	"moscow":        "Europe/Moscow",
}

func generateTime(input string, _ manifest.Document) string {
	city := extractTrailingCity(input)
	if city == "" {
		now := time.Now()
		return fmt.Sprintf("The current time is %s on %s.", now.Format("3:04 PM"), now.Format("Monday"))
	}
	tzName, ok := cityTimezones[city]
	if !ok {
		now := time.Now()
		return fmt.Sprintf("The current time is %s on %s.", now.Format("3:04 PM"), now.Format("Monday"))
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		now := time.Now()
		return fmt.Sprintf("The current time is %s on %s.", now.Format("3:04 PM"), now.Format("Monday"))
	}
	now := time.Now().In(loc)
	return fmt.Sprintf("The current time in %s is %s on %s.", strings.Title(city), now.Format("3:04 PM"), now.Format("Monday"))
}

func generateDate(_ string, _ manifest.Document) string {
	return "Today is " + time.Now().Format("Monday, January 2, 2006") + "."
}

func generateGreeting(_ string, _ manifest.Document) string {
	return "Hello! How can I help?"
}

func generateCapabilities(_ string, doc manifest.Document) string {
	if len(doc.ToolIndex) == 0 && len(doc.SkillIndex) == 0 {
		return "I don't have any registered tools or skills yet."
	}
	var sb strings.Builder
	sb.WriteString("Here's what I can do:\n")
	for name, desc := range doc.ToolIndex {
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}
	for name, desc := range doc.SkillIndex {
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// extractTrailingCity pulls a recognized city name off the end of a "what
// time is it in X" style query.
func extractTrailingCity(input string) string {
	lower := strings.ToLower(input)
	idx := strings.LastIndex(lower, " in ")
	if idx == -1 {
		return ""
	}
	candidate := strings.TrimSpace(strings.Trim(lower[idx+4:], "?. "))
	if _, ok := cityTimezones[candidate]; ok {
		return candidate
	}
	return ""
}

// matchInstant returns the generated answer and true if input matches a
// Tier 0 instant pattern.
func matchInstant(input string, doc manifest.Document) (string, bool) {
	trimmed := strings.TrimSpace(input)
	for _, p := range instantPatterns {
		if p.re.MatchString(trimmed) {
			return p.generate(trimmed, doc), true
		}
	}
	return "", false
}
