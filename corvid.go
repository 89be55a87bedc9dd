package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	cli "github.com/corvidlabs/corvid/cmd/corvid"
	"github.com/corvidlabs/corvid/internal/config"
	"github.com/corvidlabs/corvid/internal/defaults"
)

func main() {
	_ = godotenv.Load()

	dataDir, err := defaults.EnsureDataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize data directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := cli.NewApp(cfg, dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := cli.SetupRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads config.yaml from the data directory, falling back to
// the embedded default (internal/defaults/dotcorvid/config.yaml) the
// first time corvid runs with no config on disk yet.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	data, err := defaults.BundledConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("read bundled config: %w", err)
	}
	return config.LoadFromBytes(data)
}
