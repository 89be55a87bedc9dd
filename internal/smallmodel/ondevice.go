package smallmodel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// ondeviceProvider shells out to a companion CLI bridge around the host's
// on-device foundation-model API. Availability requires both a supported
// OS (the platform floor) and the bridge binary to exist in PATH or at a
// configured path.
type ondeviceProvider struct {
	binaryPath string
	workingCtx int
}

func newOndeviceProvider(binaryPath string, workingCtx int) *ondeviceProvider {
	if binaryPath == "" {
		binaryPath = "corvid-fm-bridge"
	}
	return &ondeviceProvider{binaryPath: binaryPath, workingCtx: workingCtx}
}

func (p *ondeviceProvider) id() string { return "ondevice" }

func (p *ondeviceProvider) workingContextChars() int { return p.workingCtx }

// available requires macOS (the only OS with an on-device foundation
// models API at present) and the bridge binary to be resolvable.
func (p *ondeviceProvider) available(ctx context.Context) bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	if _, err := os.Stat(p.binaryPath); err == nil {
		return true
	}
	_, err := exec.LookPath(p.binaryPath)
	return err == nil
}

// rawCall invokes the bridge binary with the prompt on stdin and reads a
// single text response from stdout. The bridge is expected to exit
// non-zero with a message on stderr on failure.
func (p *ondeviceProvider) rawCall(ctx context.Context, system, user string, maxTokens int) (string, Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(callCtx, p.binaryPath, "--max-tokens", fmt.Sprintf("%d", maxTokens))
	if system != "" {
		cmd.Env = append(os.Environ(), "CORVID_FM_SYSTEM="+system)
	}
	cmd.Stdin = bytes.NewBufferString(user)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", Usage{}, fmt.Errorf("ondevice bridge: %w: %s", err, stderr.String())
	}
	return stdout.String(), Usage{}, nil
}
