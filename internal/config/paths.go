package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".arbiter"

// Paths holds resolved filesystem paths for arbiter data.
type Paths struct {
	Base     string // ~/.arbiter
	Config   string // ~/.arbiter/config.yaml
	Database string // ~/.arbiter/arbiter.db
	Logs     string // ~/.arbiter/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If ARBITER_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ARBITER_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		Database: filepath.Join(base, "arbiter.db"),
		Logs:     filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates the standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
