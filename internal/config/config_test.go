package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-battle/internal/app"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Store.Driver != "sqlite" || cfg.Store.Key != "quiz_game_state" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Rules() != app.DefaultRules() {
		t.Fatalf("expected default rules, got %+v", cfg.Rules())
	}
	bonus := cfg.Rules().Bonus
	if bonus.Delay != 2*time.Second || bonus.Seconds != 10 || bonus.Points != 50 || cfg.Rules().BonusReady != 3 {
		t.Fatalf("unexpected bonus defaults %+v", bonus)
	}
}

func TestLoadOverridesRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
server:
  port: "9090"
store:
  driver: redis
game:
  rounds:
    word:
      questions: 6
      delay: 2s
    image:
      seconds: 0
    bonus:
      points: 100
  bonus_ready: 5
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.Host != "127.0.0.1" || cfg.Store.Driver != "redis" {
		t.Fatalf("unexpected server/store %+v", cfg)
	}

	rules := cfg.Rules()
	if rules.Word.Questions != 6 || rules.Word.Delay != 2*time.Second || rules.Word.Points != 10 {
		t.Fatalf("unexpected word rules %+v", rules.Word)
	}
	if rules.Image.Seconds != 0 || rules.Image.Points != 20 {
		t.Fatalf("unexpected image rules %+v", rules.Image)
	}
	if rules.Bonus.Points != 100 || rules.BonusReady != 5 {
		t.Fatalf("unexpected bonus rules %+v ready=%d", rules.Bonus, rules.BonusReady)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
