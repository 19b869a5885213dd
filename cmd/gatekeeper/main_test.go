package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gatekeeper/internal/api"
)

// writeConfig writes a minimal SQLite-backed config into a temp dir and
// points GATEKEEPER_CONFIG at it.
func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()

	content := `
environment: development
database:
  driver: sqlite
  sqlite:
    path: "` + dbPath + `"
    wal_mode: true
    busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 18089
session:
  secret: "test-secret-key-at-least-32-chars!"
auth:
  root:
    email: "root@example.com"
    password: "root-password"
logging:
  level: error
  format: text
  output: stdout
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GATEKEEPER_CONFIG", configPath)
	return configPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GATEKEEPER_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config failure", err)
	}
}

// TestRun_UnwritableDatabase verifies run fails when the database cannot be opened.
func TestRun_UnwritableDatabase(t *testing.T) {
	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("writing blocker file: %v", err)
	}
	writeConfig(t, filepath.Join(blocker, "gatekeeper.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the database path is unusable")
	}
}

// TestRun_StartupAndShutdown starts against a temp SQLite store and stops
// on context cancellation. MQTT and InfluxDB stay disabled.
func TestRun_StartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gatekeeper.db")
	writeConfig(t, dbPath)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	// A second boot finds the root user and skips seeding.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel2()
	if err := run(ctx2); err != nil {
		t.Fatalf("second run() error = %v", err)
	}
}

// TestGetConfigPath verifies the default and the environment override.
func TestGetConfigPath(t *testing.T) {
	t.Setenv("GATEKEEPER_CONFIG", "")
	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}

	expected := "/custom/path/config.yaml"
	t.Setenv("GATEKEEPER_CONFIG", expected)
	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

// TestHealthCheck verifies a single failing service fails the startup check.
func TestHealthCheck(t *testing.T) {
	ok := map[string]api.HealthChecker{"database": fakeChecker{}}
	if err := healthCheck(context.Background(), ok); err != nil {
		t.Errorf("healthCheck() error = %v, want nil", err)
	}

	failing := map[string]api.HealthChecker{
		"database": fakeChecker{},
		"mqtt":     fakeChecker{err: errors.New("not connected")},
	}
	err := healthCheck(context.Background(), failing)
	if err == nil || !strings.Contains(err.Error(), "mqtt") {
		t.Errorf("healthCheck() error = %v, want mqtt failure", err)
	}
}
