// Package cronexpr turns a human-friendly time phrase into a cron
// expression the scheduler can parse: relative durations ("in 5
// minutes"), clock times ("7:30pm", "19:30"), and ISO-8601 instants all
// resolve to a one-shot six-field (with seconds) cron expression anchored
// at that instant.
package cronexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Fields is the six-field (seconds included) cron dialect used throughout
// the scheduler, matching the teacher's own reminder-tool cron parser.
var Fields = cronlib.Second | cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow

var parser = cronlib.NewParser(Fields)

// Validate parses a cron expression in the scheduler's six-field dialect,
// returning an error if it's malformed.
func Validate(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// Next returns the next time expr fires after from.
func Next(expr string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

var relativeRe = regexp.MustCompile(`(?i)^in\s+(\d+)\s+(second|seconds|sec|minute|minutes|min|hour|hours|hr)s?$`)
var clockRe = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseHumanTime converts "in 3 minutes", "in 1 hour", "7:30pm", "19:30",
// or an ISO-8601 instant into a one-shot cron expression anchored at the
// resolved absolute time, relative to now.
func ParseHumanTime(at string, now time.Time) (string, error) {
	at = strings.TrimSpace(at)

	if m := relativeRe.FindStringSubmatch(at); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := strings.ToLower(m[2])
		var target time.Time
		switch {
		case strings.HasPrefix(unit, "sec"):
			target = now.Add(time.Duration(n) * time.Second)
		case strings.HasPrefix(unit, "min"):
			target = now.Add(time.Duration(n) * time.Minute)
		case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"):
			target = now.Add(time.Duration(n) * time.Hour)
		}
		return timeToCron(target), nil
	}

	if m := clockRe.FindStringSubmatch(at); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		ampm := strings.ToLower(m[3])
		if ampm == "pm" && hour < 12 {
			hour += 12
		} else if ampm == "am" && hour == 12 {
			hour = 0
		}

		target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if target.Before(now) {
			target = target.Add(24 * time.Hour)
		}
		return timeToCron(target), nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, at, now.Location()); err == nil {
			return timeToCron(t), nil
		}
	}

	return "", fmt.Errorf("cronexpr: unrecognized time format %q (try 'in 5 minutes', '7:30pm', or an ISO-8601 instant)", at)
}

// timeToCron renders an absolute instant as a one-shot six-field cron
// expression ("second minute hour day month *").
func timeToCron(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d %d *", t.Second(), t.Minute(), t.Hour(), t.Day(), int(t.Month()))
}
