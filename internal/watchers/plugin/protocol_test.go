package plugin

import (
	"context"
	"encoding/json"
	"net"
	"net/rpc"
	"testing"
	"time"
)

type fakeSourceRemote struct {
	id     string
	events []wireEvent
	cursor string
	err    string
}

func (f *fakeSourceRemote) ID() string { return f.id }

func (f *fakeSourceRemote) Poll(cursor string) ([]wireEvent, string, error) {
	return f.events, f.cursor, nil
}

// newPipedClient wires an in-process RPC server/client pair over
// net.Pipe, standing in for the subprocess boundary Launch would
// otherwise cross — this tests the RPC wire contract without actually
// spawning a plugin binary.
func newPipedClient(t *testing.T, impl SourceRemote) *sourceRPCClient {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	server := rpc.NewServer()
	if err := server.RegisterName("Plugin", &sourceRPCServer{impl: impl}); err != nil {
		t.Fatalf("register rpc server: %v", err)
	}
	go server.ServeConn(serverConn)

	t.Cleanup(func() { clientConn.Close() })
	return &sourceRPCClient{client: rpc.NewClient(clientConn)}
}

func TestSourceRPCClientRoundTripsID(t *testing.T) {
	client := newPipedClient(t, &fakeSourceRemote{id: "mail"})
	if got := client.ID(); got != "mail" {
		t.Fatalf("expected id %q, got %q", "mail", got)
	}
}

func TestSourceRPCClientDecodesPayload(t *testing.T) {
	payload, err := json.Marshal(map[string]any{"subject": "hello"})
	if err != nil {
		t.Fatalf("marshal fixture payload: %v", err)
	}
	client := newPipedClient(t, &fakeSourceRemote{
		id: "mail",
		events: []wireEvent{
			{EventID: "1", Timestamp: time.Unix(0, 0), Payload: payload},
		},
		cursor: "cursor-2",
	})

	events, newCursor, err := client.Poll(context.Background(), "cursor-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if newCursor != "cursor-2" {
		t.Fatalf("expected cursor-2, got %q", newCursor)
	}
	if len(events) != 1 || events[0].EventID != "1" {
		t.Fatalf("expected one decoded event, got %+v", events)
	}
	if events[0].Payload["subject"] != "hello" {
		t.Fatalf("expected payload to decode through, got %+v", events[0].Payload)
	}
}

func TestSourceRPCClientReportsRemoteError(t *testing.T) {
	client := newPipedClient(t, &erroringRemote{})
	if _, _, err := client.Poll(context.Background(), ""); err == nil {
		t.Fatalf("expected an error from a remote that reports one")
	}
}

type erroringRemote struct{}

func (e *erroringRemote) ID() string { return "broken" }
func (e *erroringRemote) Poll(cursor string) ([]wireEvent, string, error) {
	return nil, "", &Error{Message: "remote exploded"}
}
