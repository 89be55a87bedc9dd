package smallmodel

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRaw struct {
	name      string
	avail     bool
	calls     int
	failUntil int
}

func (f *fakeRaw) id() string                 { return f.name }
func (f *fakeRaw) available(ctx context.Context) bool { return f.avail }
func (f *fakeRaw) workingContextChars() int   { return 0 }

func (f *fakeRaw) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return "", Usage{}, errors.New("simulated failure")
	}
	return "ok:" + f.name, Usage{InputTokens: 1, OutputTokens: 1}, nil
}

func TestResolverPicksFirstAvailable(t *testing.T) {
	a := &fakeRaw{name: "a", avail: false}
	b := &fakeRaw{name: "b", avail: true}
	r := NewResolver("auto", []*Provider{newProvider(a, nil), newProvider(b, nil)})

	p, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "b" {
		t.Fatalf("expected b, got %s", p.ID())
	}
}

func TestResolverHonorsOverride(t *testing.T) {
	a := &fakeRaw{name: "a", avail: false}
	b := &fakeRaw{name: "b", avail: true}
	r := NewResolver("a", []*Provider{newProvider(a, nil), newProvider(b, nil)})

	p, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "a" {
		t.Fatalf("expected override a, got %s", p.ID())
	}
}

func TestResolverNoneAvailable(t *testing.T) {
	a := &fakeRaw{name: "a", avail: false}
	r := NewResolver("auto", []*Provider{newProvider(a, nil)})

	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatalf("expected error when no provider is available")
	}
}

func TestResolverMarkFailedSkipsOnNextResolve(t *testing.T) {
	a := &fakeRaw{name: "a", avail: true}
	b := &fakeRaw{name: "b", avail: true}
	r := NewResolver("auto", []*Provider{newProvider(a, nil), newProvider(b, nil)})

	r.MarkFailed("a")
	p, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "b" {
		t.Fatalf("expected b after a failed, got %s", p.ID())
	}
}

func TestCallWithFallbackRetriesNextProvider(t *testing.T) {
	a := &fakeRaw{name: "a", avail: true, failUntil: 10}
	b := &fakeRaw{name: "b", avail: true}
	r := NewResolver("auto", []*Provider{newProvider(a, nil), newProvider(b, nil)})

	text, err := r.CallWithFallback(context.Background(), "hello", 100, PurposeTask, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok:b" {
		t.Fatalf("expected fallback to b, got %q", text)
	}
}

func TestTruncateAddsElisionMarker(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	out := truncate(string(long), 20)
	if len(out) == 0 {
		t.Fatal("expected non-empty truncated output")
	}
	if out == string(long) {
		t.Fatal("expected truncation to shorten the string")
	}
	if !strings.HasSuffix(out, elisionMarker) {
		t.Fatalf("expected elision marker suffix, got %q", out)
	}
}

func TestTruncateNoopUnderLimit(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}
