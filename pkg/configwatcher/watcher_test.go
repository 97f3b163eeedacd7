package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modtraining_backend/internal/config"
)

const baseConfig = `
database:
  driver: sqlite
rate_limit:
  max_requests: %d
  window_minutes: 1
`

func writeConfig(t *testing.T, dir string, maxRequests int) {
	t.Helper()
	body := []byte(fmt.Sprintf(baseConfig, maxRequests))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *config.Config, 4)
	if err := Watch(ctx, dir, func(cfg *config.Config) { got <- cfg }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, dir, 42)

	select {
	case cfg := <-got:
		if cfg.RateLimit.MaxRequests != 42 {
			t.Fatalf("max_requests = %d, want 42", cfg.RateLimit.MaxRequests)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *config.Config, 1)
	if err := Watch(ctx, dir, func(cfg *config.Config) { got <- cfg }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-got:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(2 * debounce):
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), func(*config.Config) {})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
