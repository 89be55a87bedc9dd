package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	hplugin "github.com/hashicorp/go-plugin"

	"github.com/corvidlabs/corvid/internal/watchers"
)

// Poll implements watchers.Source, ignoring ctx — net/rpc calls over a
// local subprocess pipe aren't cancellable mid-flight, matching the
// teacher's own tool-plugin RPC client (protocol.go's ToolRPCClient).
func (c *sourceRPCClient) Poll(ctx context.Context, cursor string) ([]watchers.RawEvent, string, error) {
	var reply pollReply
	if err := c.client.Call("Plugin.Poll", pollArgs{Cursor: cursor}, &reply); err != nil {
		return nil, "", fmt.Errorf("watchers/plugin: rpc call failed: %w", err)
	}
	if reply.Error != "" {
		return nil, "", &Error{Message: reply.Error}
	}

	events := make([]watchers.RawEvent, 0, len(reply.Events))
	for _, we := range reply.Events {
		var payload map[string]any
		if len(we.Payload) > 0 {
			if err := json.Unmarshal(we.Payload, &payload); err != nil {
				return nil, "", fmt.Errorf("watchers/plugin: decode payload for event %s: %w", we.EventID, err)
			}
		}
		events = append(events, watchers.RawEvent{
			EventID:   we.EventID,
			Timestamp: we.Timestamp,
			Payload:   payload,
		})
	}
	return events, reply.NewCursor, nil
}

// Error wraps a remote source's reported failure.
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }

// Client owns the subprocess running a watcher-source plugin binary and
// exposes it as a watchers.Source. Close must be called to terminate
// the subprocess.
type Client struct {
	rpcClient *hplugin.Client
	source    watchers.Source
}

// Launch starts the plugin binary at path and returns a Client exposing
// it as a watchers.Source, mirroring how the teacher's capability-based
// tool loader would start a go-plugin subprocess for extensions/tools/mail.
func Launch(path string) (*Client, error) {
	rpcClient := hplugin.NewClient(&hplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path),
		AllowedProtocols: []hplugin.Protocol{hplugin.ProtocolNetRPC},
	})

	rpcProtocol, err := rpcClient.Client()
	if err != nil {
		rpcClient.Kill()
		return nil, fmt.Errorf("watchers/plugin: connect to %s: %w", path, err)
	}

	raw, err := rpcProtocol.Dispense("source")
	if err != nil {
		rpcClient.Kill()
		return nil, fmt.Errorf("watchers/plugin: dispense source from %s: %w", path, err)
	}

	source, ok := raw.(watchers.Source)
	if !ok {
		rpcClient.Kill()
		return nil, fmt.Errorf("watchers/plugin: %s did not dispense a watchers.Source", path)
	}

	return &Client{rpcClient: rpcClient, source: source}, nil
}

// Source returns the watchers.Source backed by this subprocess.
func (c *Client) Source() watchers.Source { return c.source }

// Close terminates the subprocess.
func (c *Client) Close() {
	c.rpcClient.Kill()
}
