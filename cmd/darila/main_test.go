package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/darila/internal/config"
	"github.com/erazemk/darila/internal/lifecycle"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "darila.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(config.PathEnv, path)
}

func TestParseFlagsOverridesConfig(t *testing.T) {
	writeConfig(t, "database:\n  path: from-file.sqlite3\nclaims:\n  policy: direct\n")

	cfg, err := parseFlags([]string{"-d", "from-flag.sqlite3", "--claim-mode", "moderated", "-a", ":9090"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Database.Path != "from-flag.sqlite3" {
		t.Errorf("db path = %q, want from-flag.sqlite3", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.ClaimPolicy() != lifecycle.PolicyModerated {
		t.Errorf("policy = %q, want moderated", cfg.ClaimPolicy())
	}
	if cfg.Admin.Username != "Admin" {
		t.Errorf("admin = %q, want default Admin", cfg.Admin.Username)
	}
}

func TestParseFlagsKeepsFileValues(t *testing.T) {
	writeConfig(t, "database:\n  path: from-file.sqlite3\n")

	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Database.Path != "from-file.sqlite3" {
		t.Errorf("db path = %q, want from-file.sqlite3", cfg.Database.Path)
	}
}

func TestParseFlagsRejects(t *testing.T) {
	writeConfig(t, "server:\n  addr: \":8080\"\n")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown claim mode", []string{"-m", "lottery"}},
		{"stray argument", []string{"serve"}},
		{"unknown flag", []string{"--port", "80"}},
	}
	for _, tt := range tests {
		if _, err := parseFlags(tt.args); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	b, _ := generatePassword(16)
	if len(a) != 16 {
		t.Errorf("length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("two generated passwords are equal")
	}
	if strings.ContainsAny(a, " \t\n") {
		t.Errorf("password %q contains whitespace", a)
	}
}

func TestRemoveDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "darila.sqlite3")
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}
	keep := filepath.Join(dir, "other.sqlite3")
	if err := os.WriteFile(keep, nil, 0o600); err != nil {
		t.Fatalf("writing %s: %v", keep, err)
	}

	removeDatabase(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "other.sqlite3" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only other.sqlite3 to remain, got %v", names)
	}

	// Removing again is a no-op.
	removeDatabase(path)
}

func TestInitDatabaseCreatesAdmin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "darila.sqlite3")

	database, password, err := initDatabase(path, "Admin")
	if err != nil {
		t.Fatalf("initDatabase: %v", err)
	}
	defer database.Close()
	if len(password) != 16 {
		t.Errorf("password length = %d, want 16", len(password))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}
