package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".annobot"

// Paths holds resolved filesystem paths for annobot data.
type Paths struct {
	Base    string // ~/.annobot
	Config  string // ~/.annobot/config.yaml
	Catalog string // ~/.annobot/catalog.db
	Logs    string // ~/.annobot/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If ANNOBOT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ANNOBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:    base,
		Config:  filepath.Join(base, "config.yaml"),
		Catalog: filepath.Join(base, "catalog.db"),
		Logs:    filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// CatalogPath returns the configured catalog path, or the default under p.
func (p Paths) CatalogPath(cfg Config) string {
	if cfg.Catalog.Path != "" {
		return cfg.Catalog.Path
	}
	return p.Catalog
}

// TranscriptPath returns the transcript file to record to, or "" when disabled.
func (p Paths) TranscriptPath(cfg Config) string {
	t := cfg.Logging.Transcript
	if t == "" || filepath.IsAbs(t) {
		return t
	}
	return filepath.Join(p.Logs, t)
}
