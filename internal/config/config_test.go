package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gosbe.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForZeroFields(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected explicit port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Handler.MaxPendingPerInstrument != 10000 {
		t.Fatalf("expected default max pending 10000, got %d", cfg.Handler.MaxPendingPerInstrument)
	}
	if cfg.Feed.SubjectA == cfg.Feed.SubjectB {
		t.Fatalf("default feed subjects must differ")
	}
}

func TestLoadRejectsInvalidLoggingLevel(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: verbose
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an invalid logging level")
	}
}

func TestLoadRejectsIdenticalFeedSubjects(t *testing.T) {
	path := writeTempConfig(t, `
feed:
  subject_a: md.feed.x
  subject_b: md.feed.x
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for identical feed subjects")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
