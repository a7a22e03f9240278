package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/r0d10nq/dimon/pkg/dimonmem"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadRequiresTransport(t *testing.T) {
	withEnv(t, "TELEGRAM_TOKEN", "")
	withEnv(t, "DISCORD_TOKEN", "")
	withEnv(t, "LLM_PROVIDER", "lmstudio")

	if _, err := Load(); err == nil {
		t.Error("Load should fail with no transport configured")
	}
}

func TestLoadDefaults(t *testing.T) {
	withEnv(t, "TELEGRAM_TOKEN", "test-token")
	withEnv(t, "DISCORD_TOKEN", "")
	withEnv(t, "LLM_PROVIDER", "")
	withEnv(t, "LLM_API_KEY", "")
	withEnv(t, "DIMON_MEMORY", "")
	withEnv(t, "DIMON_PERSONA", "")
	withEnv(t, "RETENTION_DAYS", "")
	withEnv(t, "TZ", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MemoryPath != "dimon.db" {
		t.Errorf("MemoryPath = %q, want dimon.db", cfg.MemoryPath)
	}
	if cfg.PersonaPath != "persona.md" {
		t.Errorf("PersonaPath = %q, want persona.md", cfg.PersonaPath)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
	if cfg.LLM.Provider != "lmstudio" {
		t.Errorf("LLM.Provider = %q, want lmstudio", cfg.LLM.Provider)
	}
	if !cfg.Bots.Telegram.Enabled || cfg.Bots.Discord.Enabled {
		t.Errorf("Bots = %+v, want telegram only", cfg.Bots)
	}
}

func TestLoadClaudeRequiresKey(t *testing.T) {
	withEnv(t, "TELEGRAM_TOKEN", "test-token")
	withEnv(t, "LLM_PROVIDER", "claude")
	withEnv(t, "LLM_API_KEY", "")
	withEnv(t, "ANTHROPIC_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("claude provider without a key should fail")
	}
}

func TestLoadStorageEnabledByKeys(t *testing.T) {
	withEnv(t, "TELEGRAM_TOKEN", "test-token")
	withEnv(t, "LLM_PROVIDER", "lmstudio")
	withEnv(t, "MINIO_ACCESS_KEY", "ak")
	withEnv(t, "MINIO_SECRET_KEY", "sk")
	withEnv(t, "MINIO_ENDPOINT", "")
	withEnv(t, "MINIO_BUCKET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Storage.Enabled {
		t.Error("storage should be enabled when both keys are set")
	}
	if cfg.Storage.Endpoint != "minio:9000" {
		t.Errorf("Endpoint = %q, want minio:9000", cfg.Storage.Endpoint)
	}
	if cfg.Storage.Bucket != "dimon-backups" {
		t.Errorf("Bucket = %q, want dimon-backups", cfg.Storage.Bucket)
	}
}

func TestLoadTuningMissingFileUsesDefaults(t *testing.T) {
	tuning, policy, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing tuning file should not fail: %v", err)
	}

	if tuning != dimonmem.DefaultTuning {
		t.Error("tuning should fall back to defaults")
	}
	if policy.MaxProbability != DefaultPolicy().MaxProbability {
		t.Error("policy should fall back to defaults")
	}
}

func TestLoadTuningOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yml")
	content := `
memory:
  min_event_spacing: 45s
  buddy_at: 80
  embed_timeout: 5s
engage:
  max_probability: 0.9
  min_initiation_tier: friend
  tiers:
    buddy:
      probability: 0.8
      cooldown: 90s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	tuning, policy, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}

	if tuning.MinEventSpacing != 45*time.Second {
		t.Errorf("MinEventSpacing = %v, want 45s", tuning.MinEventSpacing)
	}
	if tuning.BuddyAt != 80 {
		t.Errorf("BuddyAt = %v, want 80", tuning.BuddyAt)
	}
	if tuning.EmbedTimeout != 5*time.Second {
		t.Errorf("EmbedTimeout = %v, want 5s", tuning.EmbedTimeout)
	}
	// untouched knobs keep their defaults
	if tuning.StreakLength != dimonmem.DefaultTuning.StreakLength {
		t.Errorf("StreakLength = %d, want default", tuning.StreakLength)
	}

	if policy.MaxProbability != 0.9 {
		t.Errorf("MaxProbability = %v, want 0.9", policy.MaxProbability)
	}
	if policy.MinInitiationTier != dimonmem.TierFriend {
		t.Errorf("MinInitiationTier = %v, want friend", policy.MinInitiationTier)
	}

	buddy := policy.Tiers[dimonmem.TierBuddy]
	if buddy.Probability != 0.8 || buddy.Cooldown != 90*time.Second {
		t.Errorf("buddy tier = %+v, want 0.8/90s", buddy)
	}

	// the overlay must not leak into the package default
	if DefaultPolicy().Tiers[dimonmem.TierBuddy].Probability == 0.8 {
		t.Error("defaults were mutated by the overlay")
	}
}

func TestLoadTuningBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yml")
	if err := os.WriteFile(path, []byte("memory:\n  min_event_spacing: soon\n"), 0644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	if _, _, err := LoadTuning(path); err == nil {
		t.Error("unparseable duration should fail")
	}
}
