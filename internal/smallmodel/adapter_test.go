package smallmodel

import (
	"context"
	"testing"
)

func TestAdapterCallDelegatesToResolver(t *testing.T) {
	a := &fakeRaw{name: "a", avail: true}
	r := NewResolver("auto", []*Provider{newProvider(a, nil)})
	adapter := NewAdapter(r, PurposeTask)

	text, err := adapter.Call(context.Background(), "system", "user prompt", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok:a" {
		t.Fatalf("expected ok:a, got %q", text)
	}
}

func TestAdapterFallsBackOnFailure(t *testing.T) {
	a := &fakeRaw{name: "a", avail: true, failUntil: 10}
	b := &fakeRaw{name: "b", avail: true}
	r := NewResolver("auto", []*Provider{newProvider(a, nil), newProvider(b, nil)})
	adapter := NewAdapter(r, PurposeSummarization)

	text, err := adapter.Call(context.Background(), "", "hello", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok:b" {
		t.Fatalf("expected fallback to b, got %q", text)
	}
}

func TestAdapterReturnsErrorWhenNoProviderAvailable(t *testing.T) {
	a := &fakeRaw{name: "a", avail: false}
	r := NewResolver("auto", []*Provider{newProvider(a, nil)})
	adapter := NewAdapter(r, PurposeCompaction)

	if _, err := adapter.Call(context.Background(), "", "hello", 50); err == nil {
		t.Fatalf("expected an error when no provider is available")
	}
}
