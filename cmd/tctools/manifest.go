package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// projectManifest is the optional tctools.toml found by walking up from
// the working directory. Every section and key is optional; flags win
// over manifest values.
type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Format  formatConfig  `toml:"format"`
	Sort    sortConfig    `toml:"sort"`
	Release releaseConfig `toml:"make_release"`
}

type formatConfig struct {
	Filter []string `toml:"filter"`
	Jobs   int      `toml:"jobs"`
}

type sortConfig struct {
	Filter    []string `toml:"filter"`
	SkipNodes []string `toml:"skip_nodes"`
	Jobs      int      `toml:"jobs"`
}

type releaseConfig struct {
	Platform    string `toml:"platform"`
	Destination string `toml:"destination"`
	IncludeHMI  bool   `toml:"include_hmi"`
}

func findTctoolsToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "tctools.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectManifest returns (nil, false, nil) when no manifest exists;
// a missing manifest is not an error.
func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findTctoolsToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg projectConfig
	meta, err := toml.DecodeFile(manifestPath, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, true, fmt.Errorf("%s: unknown key %q", manifestPath, undecoded[0].String())
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}
