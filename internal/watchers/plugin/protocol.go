// Package plugin bridges internal/watchers.Source to an external
// process over hashicorp/go-plugin, so a mail/calendar/VCS source can
// ship as a separate binary and be hot-swapped without relinking the
// daemon. Grounded on extensions/tools/mail's RPC wrapper pattern and
// internal/agent/plugins/protocol.go's ToolPlugin RPC shape.
package plugin

import (
	"encoding/json"
	"net/rpc"
	"time"

	hplugin "github.com/hashicorp/go-plugin"
)

// Handshake verifies a watcher-source plugin binary is compatible
// before the host talks to it. A distinct magic cookie from the
// teacher's tool-plugin handshake keeps the two plugin kinds from
// being accidentally cross-loaded.
var Handshake = hplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CORVID_WATCHER_PLUGIN",
	MagicCookieValue: "corvid-watcher-plugin-v1",
}

// PluginMap is the set of plugins a watcher-source binary can dispense.
var PluginMap = map[string]hplugin.Plugin{
	"source": &SourcePlugin{},
}

// wireEvent is RawEvent's wire form: Payload travels as JSON since
// map[string]any doesn't survive gob encoding (net/rpc's default)
// without registering every concrete value type in advance.
type wireEvent struct {
	EventID   string
	Timestamp time.Time
	Payload   json.RawMessage
}

// SourceRemote is the interface an external watcher-source binary
// implements — the same shape as watchers.Source, with Payload
// substituted for its wire form.
type SourceRemote interface {
	ID() string
	Poll(cursor string) (events []wireEvent, newCursor string, err error)
}

// SourcePlugin is the hashicorp/go-plugin.Plugin implementation for
// watcher sources.
type SourcePlugin struct {
	Impl SourceRemote
}

func (p *SourcePlugin) Server(*hplugin.MuxBroker) (any, error) {
	return &sourceRPCServer{impl: p.Impl}, nil
}

func (p *SourcePlugin) Client(b *hplugin.MuxBroker, c *rpc.Client) (any, error) {
	return &sourceRPCClient{client: c}, nil
}

type pollArgs struct {
	Cursor string
}

type pollReply struct {
	Events    []wireEvent
	NewCursor string
	Error     string
}

// sourceRPCServer runs inside the plugin subprocess, wrapping the
// concrete SourceRemote implementation for net/rpc dispatch.
type sourceRPCServer struct {
	impl SourceRemote
}

func (s *sourceRPCServer) ID(_ struct{}, reply *string) error {
	*reply = s.impl.ID()
	return nil
}

func (s *sourceRPCServer) Poll(args pollArgs, reply *pollReply) error {
	events, newCursor, err := s.impl.Poll(args.Cursor)
	reply.Events = events
	reply.NewCursor = newCursor
	if err != nil {
		reply.Error = err.Error()
	}
	return nil
}

// sourceRPCClient runs in the host process and implements
// watchers.Source by forwarding calls over RPC to the subprocess.
type sourceRPCClient struct {
	client *rpc.Client
}

func (c *sourceRPCClient) ID() string {
	var resp string
	_ = c.client.Call("Plugin.ID", struct{}{}, &resp)
	return resp
}
