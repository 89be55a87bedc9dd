package router

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/corvidlabs/corvid/internal/capabilities"
	"github.com/corvidlabs/corvid/internal/manifest"
)

func newTestStore(t *testing.T, doc manifest.Document) *manifest.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture document: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture document: %v", err)
	}

	store := manifest.NewStore(path)
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatalf("expected fixture document to load")
	}
	return store
}

func testDocument() manifest.Document {
	return manifest.Document{
		BashCommands: map[string]string{
			"what is my ip|ip address": "curl -s ifconfig.me",
			"pwd|current directory":    "pwd",
		},
		Categories: []manifest.Category{
			{
				ID:         "filesystem",
				Patterns:   []string{"list files", "find a file"},
				Tools:      []string{"fs.list"},
				AgentType:  "react",
				PromptTier: "minimal",
			},
			{
				ID:         "weather",
				Patterns:   []string{"what is the weather", "forecast"},
				Tools:      []string{"weather.lookup"},
				AgentType:  "react",
				PromptTier: "standard",
			},
		},
	}
}

func TestRouteInstantTime(t *testing.T) {
	store := newTestStore(t, testDocument())
	r := New(store, nil, capabilities.New())

	result := r.Route(context.Background(), "what time is it")
	if result.Kind != KindInstant {
		t.Fatalf("expected instant, got %s", result.Kind)
	}
	if !result.IsEarlyExit() {
		t.Fatalf("expected early exit")
	}
	if !strings.Contains(result.Answer, "current time") {
		t.Fatalf("expected answer to contain %q, got %q", "current time", result.Answer)
	}
	if !strings.Contains(result.Answer, time.Now().Format("Monday")) {
		t.Fatalf("expected answer to contain the current weekday, got %q", result.Answer)
	}
}

func TestRouteInstantDoesNotFireOnUptime(t *testing.T) {
	store := newTestStore(t, testDocument())
	r := New(store, nil, capabilities.New())

	result := r.Route(context.Background(), "check the uptime of the server")
	if result.Kind == KindInstant {
		t.Fatalf("expected uptime to not match the time instant pattern")
	}
}

func TestRouteBashShortcut(t *testing.T) {
	store := newTestStore(t, testDocument())
	r := New(store, nil, capabilities.New())

	result := r.Route(context.Background(), "what is my ip")
	if result.Kind != KindBashShortcut {
		t.Fatalf("expected bash shortcut, got %s", result.Kind)
	}
	if result.Command == "" {
		t.Fatalf("expected a command")
	}
}

func TestRouteCachedCategory(t *testing.T) {
	store := newTestStore(t, testDocument())

	r := New(store, nil, capabilities.New())
	result := r.Route(context.Background(), "please list files in this folder")
	if result.Kind == KindInstant || result.Kind == KindBashShortcut {
		t.Fatalf("expected category-based result, got %s", result.Kind)
	}
	if len(result.Tools) == 0 {
		t.Fatalf("expected tools to be populated")
	}
}

func TestResolveBashShortcut(t *testing.T) {
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("no /bin/echo on this system")
	}
	result := Result{Kind: KindBashShortcut, Command: "echo hello"}
	out, err := result.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected hello, got %q", out)
	}
}

func TestSafeDefault(t *testing.T) {
	d := safeDefault()
	if d.Confidence != safeDefaultConfidence {
		t.Fatalf("expected default confidence %v, got %v", safeDefaultConfidence, d.Confidence)
	}
	if len(d.Tools) != 2 {
		t.Fatalf("expected exactly shell+capabilities tools, got %v", d.Tools)
	}
}
