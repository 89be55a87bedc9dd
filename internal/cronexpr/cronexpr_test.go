package cronexpr

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
}

func TestParseHumanTimeRelativeMinutes(t *testing.T) {
	expr, err := ParseHumanTime("in 5 minutes", fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(expr); err != nil {
		t.Fatalf("expected valid cron expression, got %v: %q", err, expr)
	}
	next, err := Next(expr, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error computing next: %v", err)
	}
	if !next.Equal(fixedNow().Add(5 * time.Minute)) {
		t.Fatalf("expected next fire at +5m, got %v", next)
	}
}

func TestParseHumanTimeRelativeHours(t *testing.T) {
	expr, err := ParseHumanTime("in 2 hours", fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := Next(expr, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Equal(fixedNow().Add(2 * time.Hour)) {
		t.Fatalf("expected next fire at +2h, got %v", next)
	}
}

func TestParseHumanTimeClockPM(t *testing.T) {
	expr, err := ParseHumanTime("7:30pm", fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := Next(expr, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 7, 30, 19, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestParseHumanTimeClockRollsOverWhenPast(t *testing.T) {
	expr, err := ParseHumanTime("1pm", fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := Next(expr, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 7, 31, 13, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected rollover to tomorrow, got %v", next)
	}
}

func TestParseHumanTimeISO8601(t *testing.T) {
	expr, err := ParseHumanTime("2026-08-01T09:00:00Z", fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := Next(expr, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestParseHumanTimeUnrecognized(t *testing.T) {
	if _, err := ParseHumanTime("sometime next week", fixedNow()); err == nil {
		t.Fatalf("expected an error for an unrecognized phrase")
	}
}

func TestValidateRejectsMalformedExpression(t *testing.T) {
	if err := Validate("not a cron expression"); err == nil {
		t.Fatalf("expected an error for a malformed expression")
	}
}

func TestValidateAcceptsRecurringExpression(t *testing.T) {
	if err := Validate("0 */5 * * * *"); err != nil {
		t.Fatalf("expected valid recurring expression, got %v", err)
	}
}
