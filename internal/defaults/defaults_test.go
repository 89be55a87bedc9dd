package defaults

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBundledManifest(t *testing.T) {
	content, err := BundledManifest()
	if err != nil {
		t.Fatalf("BundledManifest failed: %v", err)
	}
	if len(content) == 0 {
		t.Error("bundled manifest is empty")
	}
}

func TestBundledConfig(t *testing.T) {
	content, err := BundledConfig()
	if err != nil {
		t.Fatalf("BundledConfig failed: %v", err)
	}
	if len(content) == 0 {
		t.Error("bundled config is empty")
	}
}

func TestDataDir(t *testing.T) {
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("UserConfigDir failed: %v", err)
	}

	if !strings.HasPrefix(dir, configDir) {
		t.Errorf("expected DataDir to be under %s, got %s", configDir, dir)
	}

	base := filepath.Base(dir)
	if base != "Corvid" && base != "corvid" {
		t.Errorf("expected DataDir to end with Corvid or corvid, got %s", base)
	}
}

func TestEnsureDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "Corvid")
	t.Setenv("CORVID_DATA_DIR", dataDir)

	dir, err := EnsureDataDir()
	if err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("data directory was not created")
	}
}
