package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ADMIN_DISCORD_IDS", "")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Assessment.PassThreshold != 80 || cfg.Assessment.KeywordThreshold != 0.30 {
		t.Errorf("assessment = %+v", cfg.Assessment)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Errorf("jwt expire = %v", cfg.JWT.ExpireTime)
	}
	if cfg.Redis.SessionTTL() != 2*time.Hour {
		t.Errorf("session ttl = %v", cfg.Redis.SessionTTL())
	}
	if cfg.SessionWaitInterval() != 500*time.Millisecond || cfg.SessionWaitTimeout() != 5*time.Second {
		t.Errorf("session wait = %v/%v", cfg.SessionWaitInterval(), cfg.SessionWaitTimeout())
	}
}

func TestLoadConfigAdminOverride(t *testing.T) {
	dir := writeYAML(t, "admin:\n  discord_ids:\n    - \"111\"\n")
	t.Setenv("ADMIN_DISCORD_IDS", "222,333")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Admin.DiscordIDs) != 2 || cfg.Admin.DiscordIDs[0] != "222" {
		t.Fatalf("admin ids = %v", cfg.Admin.DiscordIDs)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("ADMIN_DISCORD_IDS", "")

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"pass threshold out of range", "assessment:\n  pass_threshold: 120\n"},
		{"keyword threshold zero", "assessment:\n  keyword_threshold: 0\n"},
		{"release short secret", "server:\n  mode: release\njwt:\n  secret: short\nadmin:\n  discord_ids: [\"1\"]\n"},
		{"release without admins", "server:\n  mode: release\njwt:\n  secret: 0123456789abcdef0123456789abcdef\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeYAML(t, tt.yaml)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
