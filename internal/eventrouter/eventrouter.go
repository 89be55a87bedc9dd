// Package eventrouter turns watcher EventRecords into action: either an
// immediate agent invocation or a deferred ScheduledTask, per spec's
// "decide whether the event warrants action" / immediate-vs-deferred
// split. It implements internal/watchers.EventHandler.
package eventrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corvidlabs/corvid/internal/logging"
	"github.com/corvidlabs/corvid/internal/simpleagent"
	"github.com/corvidlabs/corvid/internal/taskstore"
	"github.com/corvidlabs/corvid/internal/watchers"
)

// ModelCaller is the narrow small-model dependency this package needs
// for classification. internal/smallmodel's Adapter implements it.
type ModelCaller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// AgentInvoker runs an immediate-action event's synthesized instruction
// exactly as if it were typed interactively. internal/simpleagent.Agent
// implements it.
type AgentInvoker interface {
	Run(ctx context.Context, input string) (simpleagent.Result, error)
}

// TaskCreator enqueues a deferred event as a ScheduledTask.
// internal/taskstore.Store implements it.
type TaskCreator interface {
	Create(ctx context.Context, task taskstore.ScheduledTask) (taskstore.ScheduledTask, error)
}

// immediateKeywords and actionKeywords back the fixed keyword table used
// when no classifier model is configured, per spec's "use the Small-Model
// Client as a classifier when configured; otherwise a fixed keyword table
// on the payload." immediateKeywords trigger a direct agent invocation;
// actionKeywords alone (with no immediate keyword) mean "warrants action,
// but not urgently" — deferred to a scheduled task.
var (
	immediateKeywords = []string{"urgent", "asap", "immediately", "now", "critical", "emergency"}
	actionKeywords    = []string{"action", "request", "review", "approve", "reply", "respond", "deadline", "meeting", "invite"}
)

// Router classifies EventRecords and dispatches them. Zero value is not
// usable; construct with New.
type Router struct {
	classifier ModelCaller
	agent      AgentInvoker
	tasks      TaskCreator
	log        logging.Logger
}

// New returns a Router. classifier may be nil, in which case every event
// is decided by the fixed keyword table.
func New(classifier ModelCaller, agent AgentInvoker, tasks TaskCreator) *Router {
	return &Router{classifier: classifier, agent: agent, tasks: tasks, log: logging.New("eventrouter")}
}

// decision is one EventRecord's routing verdict.
type decision struct {
	Warrants    bool   `json:"warrants"`
	Immediate   bool   `json:"immediate"`
	Instruction string `json:"instruction"`
}

// Handle implements watchers.EventHandler: classify and dispatch every
// event in order, never aborting the batch on a single event's failure
// — a bad classification or a failed agent invocation is logged and the
// next event still runs, matching the Daemon Loop's "watcher poll
// failures are logged and swallowed" tolerance extended to per-event
// dispatch failures.
func (r *Router) Handle(ctx context.Context, events []watchers.EventRecord) error {
	for _, event := range events {
		r.handleOne(ctx, event)
	}
	return nil
}

func (r *Router) handleOne(ctx context.Context, event watchers.EventRecord) {
	d := r.classify(ctx, event)
	if !d.Warrants {
		return
	}

	if d.Immediate {
		if r.agent == nil {
			r.log.Warnf("event %s/%s warrants immediate action but no agent is configured", event.WatcherID, event.EventID)
			return
		}
		if _, err := r.agent.Run(ctx, d.Instruction); err != nil {
			r.log.Warnf("event %s/%s: immediate agent invocation failed: %v", event.WatcherID, event.EventID, err)
		}
		return
	}

	if r.tasks == nil {
		r.log.Warnf("event %s/%s warrants a deferred task but no task store is configured", event.WatcherID, event.EventID)
		return
	}
	_, err := r.tasks.Create(ctx, taskstore.ScheduledTask{
		TaskString:   d.Instruction,
		ScheduleKind: taskstore.KindOnce,
		NextRunAt:    time.Now(),
		Origin:       taskstore.OriginEventRouter,
	})
	if err != nil {
		r.log.Warnf("event %s/%s: failed to enqueue deferred task: %v", event.WatcherID, event.EventID, err)
	}
}

// classify decides an event's disposition. The classifier tier is tried
// first when configured; any error (bad JSON, model failure) falls
// through to the keyword tier, mirroring the router's own tier-fallthrough
// design ("the classifier tier catches thrown errors and returns the
// default route").
func (r *Router) classify(ctx context.Context, event watchers.EventRecord) decision {
	if r.classifier != nil {
		if d, err := r.classifyWithModel(ctx, event); err == nil {
			return d
		}
	}
	return classifyByKeyword(event)
}

func (r *Router) classifyWithModel(ctx context.Context, event watchers.EventRecord) (decision, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return decision{}, fmt.Errorf("eventrouter: marshal payload: %w", err)
	}

	system := `You triage automation events. Respond with JSON only, no prose, no markdown fences, shaped exactly as:
{"warrants": bool, "immediate": bool, "instruction": string}
"warrants" is false if the event needs no action. "immediate" is true only for something that should be acted on right now rather than queued. "instruction" is a natural-language directive for an agent to carry out, empty if warrants is false.`
	user := fmt.Sprintf("watcher: %s\nevent: %s\npayload: %s", event.WatcherID, event.EventID, string(payload))

	raw, err := r.classifier.Call(ctx, system, user, 200)
	if err != nil {
		return decision{}, fmt.Errorf("eventrouter: classify call: %w", err)
	}

	var d decision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &d); err != nil {
		return decision{}, fmt.Errorf("eventrouter: decode classification: %w", err)
	}
	return d, nil
}

// classifyByKeyword is the fixed keyword table fallback: scans the text of
// every payload key and value, of any type, for immediate/action keywords.
func classifyByKeyword(event watchers.EventRecord) decision {
	haystack := strings.ToLower(payloadText(event.Payload))

	immediate := containsAny(haystack, immediateKeywords)
	warrants := immediate || containsAny(haystack, actionKeywords)
	if !warrants {
		return decision{}
	}

	return decision{
		Warrants:    true,
		Immediate:   immediate,
		Instruction: fmt.Sprintf("Handle this %s event (id %s): %s", event.WatcherID, event.EventID, payloadText(event.Payload)),
	}
}

func payloadText(payload map[string]any) string {
	var b strings.Builder
	for k, v := range payload {
		fmt.Fprintf(&b, "%s: %v\n", k, v)
	}
	return b.String()
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
